package serverstate

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	StatusNotReady = "not_ready"
	StatusReady    = "ready"
	StatusDraining = "draining"
)

// State holds the server status and draining flag. Both fields are written
// together so readers always observe a consistent snapshot.
type State struct {
	Status   string `json:"status"`
	Draining bool   `json:"draining"`
}

// Store persists State. The default keeps it in memory; a redis store lets
// several relay instances share one drain switch.
type Store interface {
	Load() State
	Store(State)
}

var active Store = NewMemoryStore()

// UseStore replaces the active Store.
func UseStore(s Store) {
	if s != nil {
		active = s
	}
}

type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to not_ready.
func NewMemoryStore() *memoryStore {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusNotReady})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: "unknown"}
}

func (m *memoryStore) Store(s State) {
	m.v.Store(s)
}

// Snapshot returns the current state.
func Snapshot() State {
	return active.Load()
}

// SetState updates the server status string.
func SetState(status string) {
	st := active.Load()
	st.Status = status
	active.Store(st)
}

// GetState returns the current server status.
func GetState() string {
	return active.Load().Status
}

// StartDrain marks the server as draining. New prediction streams are
// refused while in-flight ones run to completion.
func StartDrain() {
	active.Store(State{Status: StatusDraining, Draining: true})
}

// IsDraining reports whether the server is draining.
func IsDraining() bool {
	return active.Load().Draining
}

// inflight counts prediction streams of this process only.
var inflight atomic.Int64

// Begin records the start of a prediction stream and returns its end func.
func Begin() (end func()) {
	inflight.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			inflight.Add(-1)
		}
	}
}

// Inflight returns the number of open prediction streams.
func Inflight() int64 {
	return inflight.Load()
}

// WaitIdle blocks until no prediction streams are open or ctx ends.
func WaitIdle(ctx context.Context) error {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for Inflight() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
