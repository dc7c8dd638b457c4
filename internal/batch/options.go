package batch

import "fmt"

// Defaults for a batch run
const (
	DefaultBatchSize     = 10
	DefaultMaxConcurrent = 3
	DefaultMaxAttempts   = 3
)

// Options bound one batch run
type Options struct {
	BatchSize     int
	MaxConcurrent int
	MaxAttempts   int
	// Titles restricts the batch to postings with one of these exact titles
	Titles []string
	// JobsPerMinute paces workflow starts; zero means no pacing
	JobsPerMinute int
}

// DefaultOptions returns batch size 10, concurrency 3, 3 attempts
func DefaultOptions() Options {
	return Options{
		BatchSize:     DefaultBatchSize,
		MaxConcurrent: DefaultMaxConcurrent,
		MaxAttempts:   DefaultMaxAttempts,
	}
}

// Validate checks the bounds. MaxConcurrent above BatchSize is allowed and
// behaves as BatchSize.
func (o Options) Validate() error {
	if o.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", o.BatchSize)
	}
	if o.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1, got %d", o.MaxConcurrent)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", o.MaxAttempts)
	}
	if o.JobsPerMinute < 0 {
		return fmt.Errorf("jobs per minute cannot be negative, got %d", o.JobsPerMinute)
	}
	return nil
}

func (o Options) concurrency() int {
	if o.MaxConcurrent > o.BatchSize {
		return o.BatchSize
	}
	return o.MaxConcurrent
}
