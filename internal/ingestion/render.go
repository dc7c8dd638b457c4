package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-elevator/internal/types"
)

// promptOmittedKeys are bookkeeping fields that carry no information about the job
var promptOmittedKeys = []string{
	"search_id", "search_query", "search_location", "fetched_at",
	"extracted", "elevated_job_id", "processed", "result_ref",
	"thumbnail", "sharing_link", "position",
}

// RenderPosting renders a raw posting as indented JSON for inclusion in a
// prompt. The description is converted to plain text and bookkeeping keys are dropped.
func RenderPosting(raw types.RawJobPosting) (string, error) {
	view := raw.Clone()
	if view == nil {
		view = types.RawJobPosting{}
	}
	for _, key := range promptOmittedKeys {
		delete(view, key)
	}
	if desc, ok := view["description"].(string); ok {
		view["description"] = NormalizeDescription(desc)
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render posting: %w", err)
	}
	return string(data), nil
}
