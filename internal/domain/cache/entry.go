// internal/domain/cache/entry.go
package cache

import (
	"net/http"
	"time"
)

// Entry is one cached response inside a generation bucket.
type Entry struct {
	Key      string // RequestKey(method, url)
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// RequestKey builds the lookup key for a request.
func RequestKey(method, url string) string {
	return method + " " + url
}

// State is the lifecycle of one cache generation.
type State string

const (
	StateInstalling State = "INSTALLING"
	StateInstalled  State = "INSTALLED"
	StateActive     State = "ACTIVE"
	StateSuperseded State = "SUPERSEDED"
)
