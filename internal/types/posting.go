package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawJobPosting is a job listing as ingested from the search API. Its shape is
// owned by the source, so it is kept as an opaque mapping.
type RawJobPosting map[string]any

// String returns the value for key when it is a string, or ""
func (r RawJobPosting) String(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy of the top-level mapping
func (r RawJobPosting) Clone() RawJobPosting {
	if r == nil {
		return nil
	}
	c := make(RawJobPosting, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Posting is a stored raw posting awaiting (or done with) elevation
type Posting struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	CompanyName string        `json:"company_name"`
	Raw         RawJobPosting `json:"raw"`
	Processed   bool          `json:"processed"`
	ResultRef   *uuid.UUID    `json:"result_ref,omitempty"`
	IngestedAt  time.Time     `json:"ingested_at"`
}

// ElevatedJob is the persisted outcome of a completed workflow run
type ElevatedJob struct {
	ID                uuid.UUID                 `json:"id"`
	OriginalPostingID string                    `json:"original_posting_id"`
	StructuredJob     *StructuredJobDescription `json:"structured_job"`
	QualityAssessment *QualityAssessment        `json:"quality_assessment"`
	Attempts          int                       `json:"attempts"`
	CreatedAt         time.Time                 `json:"created_at"`
}
