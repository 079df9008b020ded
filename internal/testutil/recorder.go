package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Call is one git invocation seen by a Recorder.
type Call struct {
	Dir  string
	Args []string
	TTY  bool
}

// String joins the arguments the way they would appear on a command line.
func (c Call) String() string { return strings.Join(c.Args, " ") }

// Recorder is a fake git runner that records every invocation instead of
// running git. Respond, when set, supplies the output and error of each call.
type Recorder struct {
	Respond func(Call) (string, error)

	mu    sync.Mutex
	calls []Call
}

// Run records a streamed invocation.
func (r *Recorder) Run(_ context.Context, dir string, args ...string) error {
	_, err := r.record(Call{Dir: dir, Args: args})
	return err
}

// Output records a captured invocation.
func (r *Recorder) Output(_ context.Context, dir string, args ...string) (string, error) {
	return r.record(Call{Dir: dir, Args: args})
}

// RunTTY records a pseudo-terminal invocation.
func (r *Recorder) RunTTY(_ context.Context, dir string, args ...string) (string, error) {
	return r.record(Call{Dir: dir, Args: args, TTY: true})
}

func (r *Recorder) record(c Call) (string, error) {
	c.Args = slices.Clone(c.Args)
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.Respond == nil {
		return "", nil
	}
	return r.Respond(c)
}

// Calls returns a copy of the recorded invocations in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Find returns the recorded invocations whose arguments start with prefix.
func (r *Recorder) Find(prefix ...string) []Call {
	var found []Call
	for _, c := range r.Calls() {
		if len(c.Args) >= len(prefix) && slices.Equal(c.Args[:len(prefix)], prefix) {
			found = append(found, c)
		}
	}
	return found
}
