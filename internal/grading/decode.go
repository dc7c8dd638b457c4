package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/job-elevator/internal/schemas"
	"github.com/jonathan/job-elevator/internal/types"
)

var ratingKeys = []string{"accuracy_rating", "assumption_rating", "clarity_rating", "conciseness_rating"}

// Decode turns a grader response into a finalized QualityAssessment. Each
// section scores the mean of its four ratings; the overall score is the mean
// of the section scores.
func Decode(data []byte) (*types.QualityAssessment, error) {
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &ParseError{Message: "response is not a JSON object", Cause: err}
	}
	if generic == nil {
		return nil, &ParseError{Message: "response is null"}
	}
	canonicalizeRatings(generic)

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, &ParseError{Message: "failed to re-encode response", Cause: err}
	}
	if err := schemas.Validate(schemas.GraderResponse, canonical); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) && len(ve.Errors) > 0 {
			return nil, &ValidationError{Field: ve.Errors[0].Field, Message: ve.Summary(), Cause: err}
		}
		return nil, &ValidationError{Message: "schema check failed", Cause: err}
	}

	var resp Response
	if err := json.Unmarshal(canonical, &resp); err != nil {
		return nil, &ParseError{Message: "failed to decode grader response", Cause: err}
	}

	assessment := resp.Assessment()
	if err := types.Validate(assessment); err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	return assessment, nil
}

// Assessment converts the response. A section graded twice keeps its lower score.
func (r *Response) Assessment() *types.QualityAssessment {
	assessment := &types.QualityAssessment{}
	index := make(map[string]int, len(r.Sections))

	for _, s := range r.Sections {
		ratings := s.SectionRatings
		section := types.SectionAssessment{
			SectionName:      s.SectionName,
			Score:            ratings.Score(),
			NeedsImprovement: s.NeedsImprovement,
			Ratings:          &ratings,
		}
		if s.Feedback != nil {
			section.Feedback = strings.TrimSpace(*s.Feedback)
		}

		if i, seen := index[s.SectionName]; seen {
			if section.Score < assessment.Sections[i].Score {
				assessment.Sections[i] = section
			}
			continue
		}
		index[s.SectionName] = len(assessment.Sections)
		assessment.Sections = append(assessment.Sections, section)
	}

	if r.OverallFeedback != nil {
		assessment.OverallFeedback = strings.TrimSpace(*r.OverallFeedback)
	}
	if assessment.OverallFeedback == "" {
		assessment.OverallFeedback = sectionFeedback(assessment.Sections)
	}

	assessment.Finalize()
	return assessment
}

// sectionFeedback composes feedback from flagged sections when the grader
// gave no overall feedback
func sectionFeedback(sections []types.SectionAssessment) string {
	var lines []string
	for _, s := range sections {
		if s.NeedsImprovement && s.Feedback != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", s.SectionName, s.Feedback))
		}
	}
	return strings.Join(lines, "\n")
}

// canonicalizeRatings upper-cases ratings and drops +/- modifiers ("b+" -> "B")
func canonicalizeRatings(doc map[string]any) {
	sections, ok := doc["sections"].([]any)
	if !ok {
		return
	}
	for _, item := range sections {
		section, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := section["section_name"].(string); ok {
			section["section_name"] = strings.ToLower(strings.TrimSpace(name))
		}
		for _, key := range ratingKeys {
			if s, ok := section[key].(string); ok {
				s = strings.ToUpper(strings.TrimSpace(s))
				s = strings.TrimRight(s, "+-")
				section[key] = s
			}
		}
	}
}
