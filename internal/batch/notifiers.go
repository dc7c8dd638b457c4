package batch

import (
	"context"
	"errors"
	"sync"
)

// Notifiers fans an outcome out to every member. All members are called even
// when one fails; their errors are joined.
type Notifiers []Notifier

// Publish implements Notifier
func (ns Notifiers) Publish(ctx context.Context, outcome Outcome) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every outcome it receives, for reporting after a batch
type Recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// Publish implements Notifier
func (r *Recorder) Publish(_ context.Context, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

// Outcomes returns a copy of the recorded outcomes
func (r *Recorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

// Failures returns the recorded outcomes that did not succeed
func (r *Recorder) Failures() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []Outcome
	for _, o := range r.outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Reset drops recorded outcomes so the Recorder can be reused across batches
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = nil
}
