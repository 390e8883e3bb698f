package http

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Alerter shows a message to the user and returns once it has been shown.
type Alerter interface {
	Alert(message string)
}

// AlerterFunc adapts a plain function to Alerter.
type AlerterFunc func(message string)

func (f AlerterFunc) Alert(message string) { f(message) }

// ConsoleAlerter writes each alert as a line to w.
type ConsoleAlerter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleAlerter returns an alerter writing to w, or os.Stderr when w is nil.
func NewConsoleAlerter(w io.Writer) *ConsoleAlerter {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleAlerter{w: w}
}

func (a *ConsoleAlerter) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.w, message)
}

// RecordingAlerter keeps every message; the dashboard renders them as banners.
type RecordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *RecordingAlerter) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

// Drain returns the recorded messages and clears them.
func (a *RecordingAlerter) Drain() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.messages
	a.messages = nil
	return out
}
