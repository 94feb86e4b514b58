// Package audit records the identity lifecycle events the product team
// watches: sign-ins, sign-outs, registrations, reset requests and failed
// attempts. Events are emitted from domain logic and fanned out to a
// store or a Kafka sink.
package audit

import (
	"context"
	"time"
)

// Action names an audited identity event.
type Action string

const (
	ActionSignedIn       Action = "user_signed_in"
	ActionSignedOut      Action = "user_signed_out"
	ActionRegistered     Action = "user_registered"
	ActionResetRequested Action = "password_reset_requested"
	ActionSignInFailed   Action = "sign_in_failed"
)

// Event captures one identity action. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	// Method is the sign-in method: password, google or mock.
	Method string `json:"method,omitempty"`
	// Reason carries the failure code for ActionSignInFailed.
	Reason string `json:"reason,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
