package types

// Grade is a letter grade for extraction quality
type Grade string

// Grade values, best to worst
const (
	GradeA Grade = "A" // exceptional, no significant issues
	GradeB Grade = "B" // good, minor issues
	GradeC Grade = "C" // acceptable, noticeable issues but usable
	GradeD Grade = "D" // major issues
	GradeF Grade = "F" // critical problems preventing use
)

// gradeScores maps letter grades onto the [0,1] score scale
var gradeScores = map[Grade]float64{
	GradeA: 1.0,
	GradeB: 0.85,
	GradeC: 0.7,
	GradeD: 0.5,
	GradeF: 0.0,
}

// Score returns the numeric value of a grade. Unknown grades score 0.
func (g Grade) Score() float64 {
	return gradeScores[g]
}

// Valid reports whether g is one of A-F
func (g Grade) Valid() bool {
	_, ok := gradeScores[g]
	return ok
}

// scoreEpsilon absorbs float error from averaging rating scores
const scoreEpsilon = 1e-9

// AtLeast reports whether score reaches threshold, tolerating float error
func AtLeast(score, threshold float64) bool {
	return score+scoreEpsilon >= threshold
}

// GradeForScore returns the best grade whose score does not exceed s
func GradeForScore(s float64) Grade {
	s += scoreEpsilon
	switch {
	case s >= gradeScores[GradeA]:
		return GradeA
	case s >= gradeScores[GradeB]:
		return GradeB
	case s >= gradeScores[GradeC]:
		return GradeC
	case s >= gradeScores[GradeD]:
		return GradeD
	default:
		return GradeF
	}
}

// SectionRatings are the letter ratings a grader gives one section
type SectionRatings struct {
	Accuracy    Grade `json:"accuracy_rating" validate:"grade" jsonschema_description:"How closely the extracted data matches the source."`
	Assumption  Grade `json:"assumption_rating" validate:"grade" jsonschema_description:"How well unsupported assumptions are avoided."`
	Clarity     Grade `json:"clarity_rating" validate:"grade" jsonschema_description:"How understandable the extracted data is."`
	Conciseness Grade `json:"conciseness_rating" validate:"grade" jsonschema_description:"How succinct and relevant the data is."`
}

// Score is the mean of the four rating scores
func (r SectionRatings) Score() float64 {
	return (r.Accuracy.Score() + r.Assumption.Score() + r.Clarity.Score() + r.Conciseness.Score()) / 4
}

// Worst returns the lowest of the four ratings
func (r SectionRatings) Worst() Grade {
	worst := r.Accuracy
	for _, g := range []Grade{r.Assumption, r.Clarity, r.Conciseness} {
		if g.Score() < worst.Score() {
			worst = g
		}
	}
	return worst
}

// SectionAssessment grades one section of a StructuredJobDescription
type SectionAssessment struct {
	SectionName      string          `json:"section_name" validate:"required"`
	Score            float64         `json:"quality_score" validate:"gte=0,lte=1"`
	NeedsImprovement bool            `json:"needs_improvement"`
	Feedback         string          `json:"feedback,omitempty"`
	Ratings          *SectionRatings `json:"ratings,omitempty"`
}

// QualityAssessment is the grading result for one extraction attempt.
// Either Sections is populated and Score is their aggregate, or Sections is
// empty and Score is a holistic judgement.
type QualityAssessment struct {
	Sections        []SectionAssessment `json:"sections,omitempty" validate:"dive"`
	Score           float64             `json:"overall_quality_score" validate:"gte=0,lte=1"`
	Grade           Grade               `json:"overall_grade" validate:"omitempty,grade"`
	OverallFeedback string              `json:"overall_feedback,omitempty"`
}

// AggregateScore returns the mean of the section scores, or the holistic
// score when no sections were graded. Raising any section score never lowers it.
func (q *QualityAssessment) AggregateScore() float64 {
	if q == nil {
		return 0
	}
	if len(q.Sections) == 0 {
		return q.Score
	}
	var sum float64
	for _, s := range q.Sections {
		sum += s.Score
	}
	return sum / float64(len(q.Sections))
}

// Finalize recomputes Score and Grade from the sections
func (q *QualityAssessment) Finalize() {
	if q == nil {
		return
	}
	q.Score = q.AggregateScore()
	q.Grade = GradeForScore(q.Score)
}

// HasImprovableSection reports whether any section is flagged for another pass
func (q *QualityAssessment) HasImprovableSection() bool {
	if q == nil {
		return false
	}
	for _, s := range q.Sections {
		if s.NeedsImprovement {
			return true
		}
	}
	return false
}
