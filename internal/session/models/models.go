// Package models holds the session domain types shared across the provider,
// store and service layers.
package models

// Identity captures an authenticated principal as returned by the identity
// provider. Values are immutable once created; an update produces a new
// value, never a mutation.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// Mode reports which provider variant backs the session. Fixed for the
// lifetime of the process; exposed read-only so the UI can show a demo-mode
// notice.
type Mode string

const (
	ModeReal Mode = "real"
	ModeMock Mode = "mock"
)

// State names the externally observable states of the session machine.
type State string

const (
	StateInitializing  State = "initializing"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Snapshot is a point-in-time view of the process-wide session. While
// Loading is true the identity must not be read as authoritative.
type Snapshot struct {
	Identity *Identity `json:"identity,omitempty"`
	Loading  bool      `json:"loading"`
	Mode     Mode      `json:"provider_mode"`

	initialized bool
}

// NewSnapshot returns the initial (Initializing) snapshot for the mode.
func NewSnapshot(mode Mode) Snapshot {
	return Snapshot{Loading: true, Mode: mode}
}

// BeginOp marks a mutating operation in flight. The identity stays
// unchanged until the operation resolves.
func (s Snapshot) BeginOp() Snapshot {
	s.Loading = true
	return s
}

// Resolve commits the outcome of the initial restore probe or a mutating
// operation. A nil identity resolves to Anonymous.
func (s Snapshot) Resolve(identity *Identity) Snapshot {
	s.Identity = identity
	s.Loading = false
	s.initialized = true
	return s
}

// Fail resolves a failed operation: loading clears, identity untouched.
func (s Snapshot) Fail() Snapshot {
	s.Loading = false
	s.initialized = true
	return s
}

// State derives the machine state from the snapshot fields.
func (s Snapshot) State() State {
	if !s.initialized {
		return StateInitializing
	}
	if s.Identity != nil {
		return StateAuthenticated
	}
	return StateAnonymous
}
