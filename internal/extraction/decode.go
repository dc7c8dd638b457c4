package extraction

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/job-elevator/internal/schemas"
	"github.com/jonathan/job-elevator/internal/types"
)

// Decode parses an LLM response into a validated StructuredJobDescription.
// Enum spellings are canonicalized before schema validation; strings are
// trimmed and lists deduplicated after decoding.
func Decode(data []byte) (*types.StructuredJobDescription, error) {
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &ParseError{Message: "response is not a JSON object", Cause: err}
	}
	if generic == nil {
		return nil, &ParseError{Message: "response is null"}
	}
	canonicalizeEnums(generic)

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, &ParseError{Message: "failed to re-encode response", Cause: err}
	}
	if err := schemas.Validate(schemas.StructuredJob, canonical); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) && len(ve.Errors) > 0 {
			return nil, &ValidationError{Field: ve.Errors[0].Field, Message: ve.Summary(), Cause: err}
		}
		return nil, &ValidationError{Message: "schema check failed", Cause: err}
	}

	var doc types.StructuredJobDescription
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return nil, &ParseError{Message: "failed to decode structured job description", Cause: err}
	}

	Normalize(&doc)

	if err := types.Validate(&doc); err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	return &doc, nil
}

// canonicalizeEnums rewrites industry and role_type into their enum spelling.
// An unrecognized industry becomes "other"; an unrecognized role type is dropped.
func canonicalizeEnums(doc map[string]any) {
	if company, ok := doc["company_overview"].(map[string]any); ok {
		if s, ok := company["industry"].(string); ok {
			switch v := enumKey(s); {
			case v == "":
				company["industry"] = nil
			case types.IsIndustry(v):
				company["industry"] = v
			default:
				company["industry"] = string(types.IndustryOther)
			}
		}
	}
	if role, ok := doc["role_summary"].(map[string]any); ok {
		if s, ok := role["role_type"].(string); ok {
			if v := enumKey(s); types.IsRoleType(v) {
				role["role_type"] = v
			} else {
				role["role_type"] = nil
			}
		}
	}
}

var enumAliases = map[string]string{
	"technology": string(types.IndustryTech),
	"software":   string(types.IndustryTech),
	"e_commerce": string(types.IndustryEcommerce),
	"pharma":     string(types.IndustryPharma),
	"nonprofit":  string(types.IndustryNonProfit),
	"ic":         string(types.RoleTypeIC),
	"manager":    string(types.RoleTypeManagement),
	"executive":  string(types.RoleTypeExecutiveManagement),
}

func enumKey(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "null" || key == "none" || key == "n/a" {
		return ""
	}
	if alias, ok := enumAliases[key]; ok {
		return alias
	}
	return key
}

// Normalize trims every string field, turns blank optional strings into nil
// and removes blank or duplicate list entries
func Normalize(doc *types.StructuredJobDescription) {
	if doc == nil {
		return
	}

	m := &doc.Metadata
	for _, p := range []**string{&m.JobID, &m.SourceURL, &m.DatePosted, &m.ApplyLink, &m.SourcePlatform} {
		*p = trimOptional(*p)
	}

	c := &doc.CompanyOverview
	for _, p := range []**string{&c.CompanyName, &c.About, &c.MissionAndValues, &c.Size, &c.Locations} {
		*p = trimOptional(*p)
	}

	r := &doc.RoleSummary
	r.Title = strings.TrimSpace(r.Title)
	for _, p := range []**string{&r.JobLevel, &r.EmploymentType, &r.RemoteOptions, &r.TeamOrDepartment} {
		*p = trimOptional(*p)
	}

	rq := &doc.ResponsibilitiesAndQualifications
	rq.Responsibilities = dedupe(rq.Responsibilities)
	rq.RequiredQualifications = dedupe(rq.RequiredQualifications)
	rq.PreferredQualifications = dedupe(rq.PreferredQualifications)
	rq.ToolsAndTechnologies = dedupe(rq.ToolsAndTechnologies)

	cb := &doc.CompensationAndBenefits
	cb.SalaryRange = trimOptional(cb.SalaryRange)
	cb.BonusAndEquity = trimOptional(cb.BonusAndEquity)
	cb.BenefitsAndPerks = dedupe(cb.BenefitsAndPerks)

	a := &doc.AdditionalInformation
	a.Highlights = dedupe(a.Highlights)
	for _, p := range []**string{&a.PostingAge, &a.ApplicationInstructions, &a.RecruitmentProcess} {
		*p = trimOptional(*p)
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// dedupe keeps the first occurrence of each entry, compared case-insensitively
func dedupe(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
