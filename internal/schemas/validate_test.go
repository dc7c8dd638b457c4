package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{GraderResponse, QualityAssessment, StructuredJob}, Names())
}

func TestValidate_StructuredJob(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
	}{
		{
			name: "minimal with nulls",
			doc: `{
				"metadata": {"job_id": null, "source_url": null},
				"company_overview": {"company_name": "Acme", "industry": null},
				"role_summary": {"title": "Backend Engineer", "role_type": null},
				"responsibilities_and_qualifications": {"responsibilities": ["Build APIs"], "tools_and_technologies": null},
				"compensation_and_benefits": null,
				"additional_information": {}
			}`,
		},
		{
			name:      "unknown industry",
			doc:       `{"company_overview": {"industry": "fintech"}, "role_summary": {"title": "PM"}}`,
			wantError: true,
		},
		{
			name:      "missing title",
			doc:       `{"role_summary": {"job_level": "Senior"}}`,
			wantError: true,
		},
		{
			name:      "empty title",
			doc:       `{"role_summary": {"title": ""}}`,
			wantError: true,
		},
		{
			name:      "missing role summary",
			doc:       `{"metadata": {}}`,
			wantError: true,
		},
		{
			name:      "list of wrong type",
			doc:       `{"role_summary": {"title": "Engineer"}, "additional_information": {"highlights": "one big string"}}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(StructuredJob, []byte(tt.doc))
			if tt.wantError {
				require.Error(t, err)
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve))
				assert.NotEmpty(t, ve.Summary())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_StructuredJob_ValidEnums(t *testing.T) {
	doc := `{"company_overview": {"industry": "finance"}, "role_summary": {"title": "PM", "role_type": "management"}}`
	assert.NoError(t, Validate(StructuredJob, []byte(doc)))
}

func TestValidate_GraderResponse(t *testing.T) {
	valid := `{
		"sections": [{
			"section_name": "role_summary",
			"accuracy_rating": "A",
			"assumption_rating": "B",
			"clarity_rating": "A",
			"conciseness_rating": "C",
			"needs_improvement": true,
			"feedback": "Remote option is inferred, not stated"
		}],
		"overall_feedback": "Drop the inferred remote option"
	}`
	assert.NoError(t, Validate(GraderResponse, []byte(valid)))

	err := Validate(GraderResponse, []byte(`{"sections": [{"section_name": "role_summary", "accuracy_rating": "E"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	err = Validate(GraderResponse, []byte(`{"sections": []}`))
	assert.Error(t, err)
}

func TestValidate_QualityAssessment(t *testing.T) {
	assert.NoError(t, Validate(QualityAssessment, []byte(`{"overall_quality_score": 0.9, "overall_grade": "B"}`)))
	assert.Error(t, Validate(QualityAssessment, []byte(`{"overall_quality_score": 1.5}`)))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("resume_plan", []byte(`{}`))
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(StructuredJob, []byte(`{ invalid json }`))
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"role_summary": {"title": "SRE"}}`), 0644))

	assert.NoError(t, ValidateFile(StructuredJob, path))

	err := ValidateFile(StructuredJob, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_Files(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	raw, err := Raw(QualityAssessment)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(schemaPath, raw, 0644))

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"overall_quality_score": 0.7}`), 0644))
	assert.NoError(t, ValidateJSON(schemaPath, good))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"overall_grade": "Z"}`), 0644))
	err = ValidateJSON(schemaPath, bad)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.GreaterOrEqual(t, len(validationErr.Errors), 2)

	err = ValidateJSON(filepath.Join(dir, "nope.json"), good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
