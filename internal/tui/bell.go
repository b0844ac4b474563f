package tui

import "io"

// Bell rings the terminal bell as the end-of-workout notification.
type Bell struct {
	W io.Writer
}

// Notify implements session.Notifier.
func (b Bell) Notify() error {
	if b.W == nil {
		return nil
	}
	_, err := io.WriteString(b.W, "\a")
	return err
}
