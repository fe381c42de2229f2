// SPDX-License-Identifier: MIT
package transport

import "warp/internal/log"

// LoggingTransport implements Transport by writing events to the process
// log. It is the default when no network transport is configured.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(ev Event) error {
	log.Infof("Event %s job=%s %v", ev.Type, ev.JobID, ev.Payload)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
