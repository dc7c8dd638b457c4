package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/job-elevator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPosting(t *testing.T) {
	raw := types.RawJobPosting{
		"title":        "Backend Engineer",
		"company_name": "Acme",
		"description":  "<p>Own the <b>billing</b> service.</p><ul><li>Go</li></ul>",
		"search_id":    "search-1",
		"fetched_at":   "2024-11-02T18:05:00Z",
		"extracted":    false,
		"extensions":   []any{"Full-time", "Health insurance"},
	}

	out, err := RenderPosting(raw)
	require.NoError(t, err)

	var rendered map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rendered))

	assert.Equal(t, "Backend Engineer", rendered["title"])
	assert.Equal(t, "Own the billing service.\n- Go", rendered["description"])
	assert.Contains(t, rendered, "extensions")
	assert.NotContains(t, rendered, "search_id")
	assert.NotContains(t, rendered, "fetched_at")
	assert.NotContains(t, rendered, "extracted")

	// the caller's posting is left untouched
	assert.Equal(t, "search-1", raw["search_id"])
	assert.Contains(t, raw["description"], "<p>")
}

func TestRenderPosting_Nil(t *testing.T) {
	out, err := RenderPosting(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}
