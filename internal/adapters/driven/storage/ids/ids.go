// Package ids generates identifiers for stored records.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewQueueID returns a ULID. IDs from one process sort in creation order,
// which is the claim order of the work queue.
func NewQueueID() string {
	return NewQueueIDAt(time.Now())
}

// NewQueueIDAt returns a ULID for the given time.
func NewQueueIDAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewID returns a random UUID for tasks and raw results.
func NewID() string {
	return uuid.New().String()
}
