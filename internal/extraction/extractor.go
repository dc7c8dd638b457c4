// Package extraction turns a raw job posting into a StructuredJobDescription
// using an LLM, optionally refining a previous attempt with grader feedback.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/job-elevator/internal/ingestion"
	"github.com/jonathan/job-elevator/internal/llm"
	"github.com/jonathan/job-elevator/internal/prompts"
	"github.com/jonathan/job-elevator/internal/types"
)

// NoFeedback is sent in place of feedback on a first attempt
const NoFeedback = "None"

const promptFile = "extraction.json"

var targetSchema = sync.OnceValues(llm.SchemaJSON[types.StructuredJobDescription])

// Extractor calls an LLM to structure raw postings
type Extractor struct {
	client llm.Client
	tier   llm.ModelTier
	logger *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithTier selects the model tier. Extraction defaults to TierAdvanced.
func WithTier(tier llm.ModelTier) Option {
	return func(e *Extractor) { e.tier = tier }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor backed by client
func New(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client: client,
		tier:   llm.TierAdvanced,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces a structured document for raw. attempt starts at 1;
// feedback and previous carry the last grading round into a refinement.
func (e *Extractor) Extract(ctx context.Context, raw types.RawJobPosting, attempt int, feedback *string, previous *types.StructuredJobDescription) (*types.StructuredJobDescription, error) {
	if attempt < 1 {
		return nil, &ValidationError{Field: "attempt", Message: fmt.Sprintf("must be at least 1, got %d", attempt)}
	}

	prompt, err := BuildPrompt(raw, attempt, feedback, previous)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	responseText, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate structured job description",
			Cause:   err,
		}
	}
	e.logger.DebugContext(ctx, "extraction response received",
		"attempt", attempt,
		"model", e.client.GetModel(e.tier),
		"duration_ms", time.Since(start).Milliseconds(),
		"bytes", len(responseText))

	return Decode([]byte(llm.CleanJSONBlock(responseText)))
}

// BuildPrompt renders the extraction prompt for one attempt
func BuildPrompt(raw types.RawJobPosting, attempt int, feedback *string, previous *types.StructuredJobDescription) (string, error) {
	rawText, err := ingestion.RenderPosting(raw)
	if err != nil {
		return "", err
	}

	feedbackText := NoFeedback
	if feedback != nil && strings.TrimSpace(*feedback) != "" {
		feedbackText = strings.TrimSpace(*feedback)
	}

	previousText := NoFeedback
	if previous != nil {
		data, err := json.MarshalIndent(previous, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render previous extraction: %w", err)
		}
		previousText = string(data)
	}

	schemaJSON, err := targetSchema()
	if err != nil {
		return "", err
	}

	input, err := prompts.Render(promptFile, "user", map[string]string{
		"RawJob":             rawText,
		"AttemptNumber":      strconv.Itoa(attempt),
		"PreviousFeedback":   feedbackText,
		"PreviousExtraction": previousText,
	})
	if err != nil {
		return "", err
	}

	return llm.BuildStructuredPrompt(prompts.MustGet(promptFile, "system"), schemaJSON, input), nil
}
