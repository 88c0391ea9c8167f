package notification

import "strings"

// Action is a user response to a delivered notification.
type Action string

const (
	ActionTake    Action = "take"
	ActionTaken   Action = "taken"
	ActionSnooze  Action = "snooze"
	ActionDismiss Action = "dismiss"
)

// ParseAction normalises an action name. The second result is false for
// names outside the action surface.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionTake, ActionTaken, ActionSnooze, ActionDismiss:
		return a, true
	default:
		return "", false
	}
}

// Acknowledges reports whether the action records a taken dose.
func (a Action) Acknowledges() bool {
	return a == ActionTake || a == ActionTaken
}
