package notifier

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Notice describes a mutation that the service did not confirm
type Notice struct {
	Op      string
	EventID int
	Err     error
	At      time.Time
}

// String renders the notice for a terminal
func (n Notice) String() string {
	if n.EventID != 0 {
		return fmt.Sprintf("%s event %d failed: %v", n.Op, n.EventID, n.Err)
	}
	return fmt.Sprintf("%s failed: %v", n.Op, n.Err)
}

// Notifier defines the interface for surfacing failure notices
type Notifier interface {
	// Notify delivers one notice
	Notify(n Notice) error
}

// Func adapts a plain function to a Notifier
type Func func(n Notice) error

// Notify calls f
func (f Func) Notify(n Notice) error {
	return f(n)
}

// WriterNotifier prints notices to a writer, typically stderr
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterNotifier creates a notifier that writes to out
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

// Notify prints the notice on its own line
func (w *WriterNotifier) Notify(n Notice) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := fmt.Fprintf(w.out, "%s %s\n", color.RedString("error:"), n.String())
	return err
}

// Recorder keeps notices in memory
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the notice
func (r *Recorder) Notify(n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

// Notices returns a copy of everything recorded so far
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns the recorded notices and forgets them
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Multi delivers each notice to every notifier in turn and returns the first
// delivery error
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(n Notice) error {
		var first error
		for _, target := range notifiers {
			if err := target.Notify(n); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// Discard is a Notifier that drops every notice
var Discard Notifier = Func(func(Notice) error { return nil })
