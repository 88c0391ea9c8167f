// internal/domain/acknowledgement/record.go
package acknowledgement

import "time"

// ActionTaken is the only action recorded in the queue.
const ActionTaken = "taken"

// Record is a "medicine taken" acknowledgement. It is immutable once
// written and only removed after the remote endpoint confirmed the batch.
type Record struct {
	Key        int64     `json:"key"`                  // Local queue key, assigned on enqueue
	ID         string    `json:"id"`                   // UUID, used by the server to drop duplicates
	Time       time.Time `json:"time"`                 // When the user acted
	Action     string    `json:"action"`               // Always "taken"
	ScheduleID string    `json:"scheduleId,omitempty"` // Optional schedule reference
}
