package port

import "time"

// Sink is where the rendered dashboard goes.
type Sink interface {
	// WriteDashboard replaces the visible dashboard with a new frame.
	WriteDashboard(frame string) error
	// WriteSnapshot appends a timestamped historical line.
	WriteSnapshot(ts time.Time, line string) error
	NewLine() error
}
