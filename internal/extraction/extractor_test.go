package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/job-elevator/internal/llm"
	"github.com/jonathan/job-elevator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return validResponse, nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

const validResponse = "```json\n" + `{
  "metadata": {"job_id": null, "source_url": null, "date_posted": null, "apply_link": "https://jobs.example/42", "source_platform": "LinkedIn"},
  "company_overview": {"company_name": "Acme Robotics", "about": "Warehouse automation.", "mission_and_values": null, "size": null, "industry": "Manufacturing", "locations": "Seattle, WA"},
  "role_summary": {"title": "Senior Backend Engineer", "job_level": "Senior", "role_type": "individual contributor", "employment_type": "Full-time", "remote_options": "hybrid", "team_or_department": null},
  "responsibilities_and_qualifications": {
    "responsibilities": ["Design fleet APIs", "Design fleet APIs", "  On-call rotation "],
    "required_qualifications": ["5+ years Go"],
    "preferred_qualifications": null,
    "tools_and_technologies": ["Go", "Postgres", "go"]
  },
  "compensation_and_benefits": {"salary_range": "$170k-$210k", "bonus_and_equity": " ", "benefits_and_perks": ["401k"]},
  "additional_information": {"highlights": [], "posting_age": "3 days ago", "application_instructions": null, "recruitment_process": null}
}` + "\n```"

func samplePosting() types.RawJobPosting {
	return types.RawJobPosting{
		"title":        "Senior Backend Engineer",
		"company_name": "Acme Robotics",
		"location":     "Seattle, WA",
		"description":  "<p>Build the APIs that run our robot fleet.</p>",
	}
}

func TestExtract_FirstAttempt(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt, gotTier = prompt, tier
			return validResponse, nil
		},
	}

	doc, err := New(client).Extract(context.Background(), samplePosting(), 1, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, llm.TierAdvanced, gotTier)
	assert.Contains(t, gotPrompt, "Attempt Number: 1")
	assert.Contains(t, gotPrompt, "Previous Feedback: None")
	assert.Contains(t, gotPrompt, "Build the APIs that run our robot fleet.")
	assert.Contains(t, gotPrompt, "JSON Schema")
	assert.NotContains(t, gotPrompt, "{{.")

	assert.Equal(t, "Senior Backend Engineer", doc.RoleSummary.Title)
	require.NotNil(t, doc.CompanyOverview.Industry)
	assert.Equal(t, types.IndustryManufacturing, *doc.CompanyOverview.Industry)
	require.NotNil(t, doc.RoleSummary.RoleType)
	assert.Equal(t, types.RoleTypeIC, *doc.RoleSummary.RoleType)
	assert.Nil(t, doc.CompanyOverview.MissionAndValues)
	assert.Nil(t, doc.CompensationAndBenefits.BonusAndEquity)
	assert.Equal(t, []string{"Design fleet APIs", "On-call rotation"}, doc.ResponsibilitiesAndQualifications.Responsibilities)
	assert.Equal(t, []string{"Go", "Postgres"}, doc.ResponsibilitiesAndQualifications.ToolsAndTechnologies)
}

func TestExtract_Refinement(t *testing.T) {
	var gotPrompt string
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			gotPrompt = prompt
			return validResponse, nil
		},
	}

	previous := &types.StructuredJobDescription{RoleSummary: types.RoleSummary{Title: "Backend Engineer (draft)"}}
	feedback := "Salary range is missing from compensation"

	_, err := New(client).Extract(context.Background(), samplePosting(), 2, &feedback, previous)
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "Attempt Number: 2")
	assert.Contains(t, gotPrompt, "Previous Feedback: Salary range is missing from compensation")
	assert.Contains(t, gotPrompt, "Backend Engineer (draft)")
}

func TestExtract_BlankFeedbackSendsSentinel(t *testing.T) {
	blank := "   "
	prompt, err := BuildPrompt(samplePosting(), 2, &blank, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Previous Feedback: None")
}

func TestExtract_WithTier(t *testing.T) {
	var gotTier llm.ModelTier
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
			gotTier = tier
			return validResponse, nil
		},
	}

	_, err := New(client, WithTier(llm.TierStandard)).Extract(context.Background(), samplePosting(), 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, llm.TierStandard, gotTier)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		apiErr   error
		attempt  int
		check    func(t *testing.T, err error)
	}{
		{
			name:    "api failure",
			apiErr:  errors.New("429 rate limited"),
			attempt: 1,
			check: func(t *testing.T, err error) {
				var target *APICallError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, err.Error(), "429 rate limited")
			},
		},
		{
			name:     "not json",
			response: "Sorry, I cannot help with that.",
			attempt:  1,
			check: func(t *testing.T, err error) {
				var target *ParseError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name:     "array instead of object",
			response: `[{"role_summary": {"title": "x"}}]`,
			attempt:  1,
			check: func(t *testing.T, err error) {
				var target *ParseError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name:     "missing title",
			response: `{"role_summary": {"job_level": "Senior"}}`,
			attempt:  1,
			check: func(t *testing.T, err error) {
				var target *ValidationError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Message, "title")
			},
		},
		{
			name:     "whitespace title",
			response: `{"role_summary": {"title": "   "}}`,
			attempt:  1,
			check: func(t *testing.T, err error) {
				var target *ValidationError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Message, "Title")
			},
		},
		{
			name:    "attempt below one",
			attempt: 0,
			check: func(t *testing.T, err error) {
				var target *ValidationError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "attempt", target.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockLLMClient{
				GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
					return tt.response, tt.apiErr
				},
			}
			doc, err := New(client).Extract(context.Background(), samplePosting(), tt.attempt, nil, nil)
			require.Error(t, err)
			assert.Nil(t, doc)
			tt.check(t, err)
		})
	}
}

func TestExtract_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &MockLLMClient{
		GenerateJSONFunc: func(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "", ctx.Err()
		},
	}

	_, err := New(client).Extract(ctx, samplePosting(), 1, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
