package shared

import (
	"fmt"
	"sync"
	"time"
)

// LifecycleStatus represents the state of an agent in its lifecycle
type LifecycleStatus string

const (
	// LifecycleStatusSetup indicates the agent is building its local state
	LifecycleStatusSetup LifecycleStatus = "SETUP"

	// LifecycleStatusReady indicates setup finished and the agent waits for the start gate
	LifecycleStatusReady LifecycleStatus = "READY"

	// LifecycleStatusRunning indicates the agent is serving or navigating
	LifecycleStatusRunning LifecycleStatus = "RUNNING"

	// LifecycleStatusShuttingDown indicates teardown is in progress
	LifecycleStatusShuttingDown LifecycleStatus = "SHUTTING_DOWN"

	// LifecycleStatusStopped indicates every owned resource was released
	LifecycleStatusStopped LifecycleStatus = "STOPPED"

	// LifecycleStatusFailed indicates setup failed
	LifecycleStatusFailed LifecycleStatus = "FAILED"
)

// LifecycleStateMachine manages the SETUP → READY → RUNNING → SHUTTING_DOWN → STOPPED
// sequence shared by port and ship agents.
//
// Invariants:
// - State transitions must follow valid paths
// - BeginShutdown succeeds exactly once, so teardown runs at most once
// - Safe for concurrent use (the coordinator shuts agents down from its own goroutine)
type LifecycleStateMachine struct {
	mu        sync.Mutex
	status    LifecycleStatus
	createdAt time.Time
	updatedAt time.Time
	startedAt *time.Time
	stoppedAt *time.Time
	lastError error
	clock     Clock
}

// NewLifecycleStateMachine creates a new lifecycle state machine in SETUP state
func NewLifecycleStateMachine(clock Clock) *LifecycleStateMachine {
	if clock == nil {
		clock = NewRealClock()
	}

	now := clock.Now()
	return &LifecycleStateMachine{
		status:    LifecycleStatusSetup,
		createdAt: now,
		updatedAt: now,
		clock:     clock,
	}
}

// Status returns the current lifecycle status
func (sm *LifecycleStateMachine) Status() LifecycleStatus {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.status
}

// StartedAt returns when the agent started running (nil if not started)
func (sm *LifecycleStateMachine) StartedAt() *time.Time {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.startedAt
}

// LastError returns the setup error, if any
func (sm *LifecycleStateMachine) LastError() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.lastError
}

// MarkReady transitions from SETUP to READY
func (sm *LifecycleStateMachine) MarkReady() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.status != LifecycleStatusSetup {
		return fmt.Errorf("cannot mark ready from %s state", sm.status)
	}
	sm.status = LifecycleStatusReady
	sm.updatedAt = sm.clock.Now()
	return nil
}

// Start transitions from READY to RUNNING
func (sm *LifecycleStateMachine) Start() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.status != LifecycleStatusReady {
		return fmt.Errorf("cannot start from %s state", sm.status)
	}
	now := sm.clock.Now()
	sm.status = LifecycleStatusRunning
	sm.startedAt = &now
	sm.updatedAt = now
	return nil
}

// Fail records a setup failure
func (sm *LifecycleStateMachine) Fail(err error) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.status != LifecycleStatusSetup {
		return fmt.Errorf("cannot fail from %s state", sm.status)
	}
	now := sm.clock.Now()
	sm.status = LifecycleStatusFailed
	sm.lastError = err
	sm.stoppedAt = &now
	sm.updatedAt = now
	return nil
}

// BeginShutdown moves any non-terminal state to SHUTTING_DOWN.
// Returns false when teardown already started or finished, so callers skip releasing twice.
func (sm *LifecycleStateMachine) BeginShutdown() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.status {
	case LifecycleStatusShuttingDown, LifecycleStatusStopped:
		return false
	}
	sm.status = LifecycleStatusShuttingDown
	sm.updatedAt = sm.clock.Now()
	return true
}

// MarkStopped finishes teardown
func (sm *LifecycleStateMachine) MarkStopped() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.status != LifecycleStatusShuttingDown {
		return fmt.Errorf("cannot stop from %s state", sm.status)
	}
	now := sm.clock.Now()
	sm.status = LifecycleStatusStopped
	sm.stoppedAt = &now
	sm.updatedAt = now
	return nil
}

// IsRunning returns true if the agent is serving or navigating
func (sm *LifecycleStateMachine) IsRunning() bool {
	return sm.Status() == LifecycleStatusRunning
}

// IsFinished returns true once teardown has begun or setup failed
func (sm *LifecycleStateMachine) IsFinished() bool {
	switch sm.Status() {
	case LifecycleStatusShuttingDown, LifecycleStatusStopped, LifecycleStatusFailed:
		return true
	}
	return false
}

// RuntimeDuration calculates how long the agent has been/was running
func (sm *LifecycleStateMachine) RuntimeDuration() time.Duration {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.startedAt == nil {
		return 0
	}
	endTime := sm.clock.Now()
	if sm.stoppedAt != nil {
		endTime = *sm.stoppedAt
	}
	return endTime.Sub(*sm.startedAt)
}
