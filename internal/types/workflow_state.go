package types

import "time"

// ProcessingStatus is the position of a posting in the extract/grade loop
type ProcessingStatus string

// ProcessingStatus values. Extracting and Grading are transient; Completed
// and Failed are terminal.
const (
	StatusExtracting ProcessingStatus = "extracting"
	StatusGrading    ProcessingStatus = "grading"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen from s
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// WorkflowState is the record threaded through one posting's elevation run
type WorkflowState struct {
	JobID             string                    `json:"job_id"`
	RawJobData        RawJobPosting             `json:"raw_job_data"`
	StructuredJob     *StructuredJobDescription `json:"structured_job,omitempty"`
	QualityAssessment *QualityAssessment        `json:"quality_assessment,omitempty"`
	Attempts          int                       `json:"attempts"`
	MaxAttempts       int                       `json:"max_attempts"`
	Status            ProcessingStatus          `json:"status"`
	LastFeedback      *string                   `json:"last_feedback,omitempty"`
	ErrorMessage      *string                   `json:"error_message,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}
