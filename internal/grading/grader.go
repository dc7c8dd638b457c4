// Package grading scores a structured job description against its source
// posting with an LLM reviewer.
package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/job-elevator/internal/ingestion"
	"github.com/jonathan/job-elevator/internal/llm"
	"github.com/jonathan/job-elevator/internal/prompts"
	"github.com/jonathan/job-elevator/internal/types"
)

const promptFile = "grading.json"

// Response is the shape the grader model is asked to return
type Response struct {
	Sections        []SectionResponse `json:"sections" jsonschema:"minItems=1"`
	OverallFeedback *string           `json:"overall_feedback" jsonschema_description:"Concrete instructions for the next extraction attempt."`
}

// SectionResponse grades one section
type SectionResponse struct {
	SectionName string `json:"section_name" jsonschema:"enum=metadata,enum=company_overview,enum=role_summary,enum=responsibilities_and_qualifications,enum=compensation_and_benefits,enum=additional_information"`
	types.SectionRatings
	NeedsImprovement bool    `json:"needs_improvement" jsonschema_description:"True when another extraction pass could fix this section."`
	Feedback         *string `json:"feedback" jsonschema_description:"What is wrong with the section, if anything."`
}

var responseSchema = sync.OnceValues(llm.SchemaJSON[Response])

// Grader calls an LLM to assess extraction quality
type Grader struct {
	client llm.Client
	tier   llm.ModelTier
	logger *slog.Logger
}

// Option configures a Grader
type Option func(*Grader)

// WithTier selects the model tier. Grading defaults to TierLite.
func WithTier(tier llm.ModelTier) Option {
	return func(g *Grader) { g.tier = tier }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grader) { g.logger = logger }
}

// New creates a Grader backed by client
func New(client llm.Client, opts ...Option) *Grader {
	g := &Grader{
		client: client,
		tier:   llm.TierLite,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grade assesses doc against the raw posting it was extracted from
func (g *Grader) Grade(ctx context.Context, raw types.RawJobPosting, doc *types.StructuredJobDescription) (*types.QualityAssessment, error) {
	if doc == nil {
		return nil, &ValidationError{Field: "structured_job", Message: "nothing to grade"}
	}

	prompt, err := BuildPrompt(raw, doc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	responseText, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to grade structured job description",
			Cause:   err,
		}
	}

	assessment, err := Decode([]byte(llm.CleanJSONBlock(responseText)))
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "grading response received",
		"model", g.client.GetModel(g.tier),
		"duration_ms", time.Since(start).Milliseconds(),
		"score", assessment.Score,
		"grade", assessment.Grade)

	return assessment, nil
}

// BuildPrompt renders the grading prompt
func BuildPrompt(raw types.RawJobPosting, doc *types.StructuredJobDescription) (string, error) {
	rawText, err := ingestion.RenderPosting(raw)
	if err != nil {
		return "", err
	}

	docJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render structured job: %w", err)
	}

	schemaJSON, err := responseSchema()
	if err != nil {
		return "", err
	}

	input, err := prompts.Render(promptFile, "user", map[string]string{
		"RawJob":        rawText,
		"StructuredJob": string(docJSON),
	})
	if err != nil {
		return "", err
	}

	return llm.BuildStructuredPrompt(prompts.MustGet(promptFile, "system"), schemaJSON, input), nil
}
