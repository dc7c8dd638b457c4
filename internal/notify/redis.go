// Package notify publishes batch outcomes to Redis so downstream consumers
// can react to completed or failed postings.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/job-elevator/internal/batch"
	"github.com/redis/go-redis/v9"
)

// Defaults for the outcome stream
const (
	DefaultStream = "job_elevator:outcomes"
	DefaultMaxLen = 10000
)

// EventOutcome is the event type carried by every message
const EventOutcome = "POSTING_ELEVATED"

// redisClient is the subset of *redis.Client used by Publisher
type redisClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Options selects where outcomes go. Stream is always written; Channel, when
// set, also receives a pub/sub copy.
type Options struct {
	Stream  string
	Channel string
	MaxLen  int64
}

// Publisher implements batch.Notifier on top of a Redis stream
type Publisher struct {
	rdb  redisClient
	opts Options
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Connect dials redisURL and returns a Publisher that owns the connection
func Connect(ctx context.Context, redisURL string, opts Options) (*Publisher, error) {
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return New(client, opts), nil
}

// New wraps an existing client
func New(rdb redisClient, opts Options) *Publisher {
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	if opts.MaxLen <= 0 {
		opts.MaxLen = DefaultMaxLen
	}
	return &Publisher{rdb: rdb, opts: opts}
}

// Publish appends outcome to the stream, trimming it to roughly MaxLen entries
func (p *Publisher) Publish(ctx context.Context, outcome batch.Outcome) error {
	values, err := messageValues(outcome)
	if err != nil {
		return err
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.opts.Stream,
		MaxLen: p.opts.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("XADD %s: %w", p.opts.Stream, err)
	}

	if p.opts.Channel != "" {
		if err := p.rdb.Publish(ctx, p.opts.Channel, values["payload"]).Err(); err != nil {
			return fmt.Errorf("PUBLISH %s: %w", p.opts.Channel, err)
		}
	}
	return nil
}

// Close releases the underlying connection
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// messageValues flattens an outcome into stream fields. The full outcome is
// also carried as JSON under "payload".
func messageValues(outcome batch.Outcome) (map[string]any, error) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcome for %s: %w", outcome.PostingID, err)
	}

	values := map[string]any{
		"type":        EventOutcome,
		"posting_id":  outcome.PostingID,
		"status":      string(outcome.Status),
		"attempts":    strconv.Itoa(outcome.Attempts),
		"score":       strconv.FormatFloat(outcome.Score, 'f', 4, 64),
		"finished_at": outcome.FinishedAt.UTC().Format(time.RFC3339),
		"payload":     string(payload),
	}
	if outcome.ResultID != nil {
		values["result_id"] = outcome.ResultID.String()
	}
	if outcome.Error != "" {
		values["error"] = outcome.Error
	}
	return values, nil
}
