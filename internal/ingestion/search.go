package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonathan/job-elevator/internal/types"
)

// SearchResponse is a saved response from the job search API. Jobs are kept
// raw since their shape belongs to the search provider.
type SearchResponse struct {
	SearchMetadata struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	} `json:"search_metadata"`
	SearchParameters struct {
		Engine string `json:"engine"`
		Query  string `json:"q"`
	} `json:"search_parameters"`
	SearchInformation struct {
		DetectedLocation string `json:"detected_location"`
	} `json:"search_information"`
	Jobs []types.RawJobPosting `json:"jobs"`
}

// ParseSearchResponse decodes a search response. Older responses name the
// job list "jobs_results".
func ParseSearchResponse(r io.Reader) (*SearchResponse, error) {
	var payload struct {
		SearchResponse
		JobsResults []types.RawJobPosting `json:"jobs_results"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	resp := payload.SearchResponse
	if len(resp.Jobs) == 0 {
		resp.Jobs = payload.JobsResults
	}
	return &resp, nil
}

// ReadSearchFile parses a search response saved on disk
func ReadSearchFile(path string) (*SearchResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseSearchResponse(f)
}

// PostingID derives a stable id from the fields that identify a listing
// across searches: title, company, location and apply link.
func PostingID(raw types.RawJobPosting) string {
	key := strings.Join([]string{
		strings.TrimSpace(raw.String("title")),
		strings.TrimSpace(raw.String("company_name")),
		strings.TrimSpace(raw.String("location")),
		strings.TrimSpace(raw.String("apply_link")),
	}, "\x1f")
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}

// Postings converts every job in the response into a Posting tagged with the
// search it came from. Jobs without a title are skipped.
func (r *SearchResponse) Postings(fetchedAt time.Time) ([]types.Posting, int) {
	postings := make([]types.Posting, 0, len(r.Jobs))
	skipped := 0
	for _, job := range r.Jobs {
		if strings.TrimSpace(job.String("title")) == "" {
			skipped++
			continue
		}

		raw := job.Clone()
		raw["search_id"] = r.SearchMetadata.ID
		raw["search_query"] = r.SearchParameters.Query
		raw["fetched_at"] = fetchedAt.UTC().Format(time.RFC3339)
		if loc := r.SearchInformation.DetectedLocation; loc != "" {
			raw["search_location"] = loc
		}

		postings = append(postings, types.Posting{
			ID:          PostingID(job),
			Title:       strings.TrimSpace(job.String("title")),
			CompanyName: strings.TrimSpace(job.String("company_name")),
			Raw:         raw,
			IngestedAt:  fetchedAt,
		})
	}
	return postings, skipped
}
