// SPDX-License-Identifier: MIT
// Package transport publishes engine events (detection summaries, render
// progress, commit state changes) to interested listeners. Implementations
// must be safe for concurrent use.
package transport

// Event is one engine notification.
type Event struct {
	Type    string         `json:"type"`
	JobID   string         `json:"jobId,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Transport defines a generic interface for sending events.
type Transport interface {
	Send(ev Event) error
	Close() error
}
