// Package types provides type definitions for structured data used throughout the job elevator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RoleType is the general role type, set only when the posting states it
type RoleType string

// RoleType values
const (
	RoleTypeIC                  RoleType = "individual_contributor"
	RoleTypeManagement          RoleType = "management"
	RoleTypeExecutiveManagement RoleType = "executive_management"
)

// Industry is a broad industry classification, set only when the posting states it
type Industry string

// Industry values
const (
	IndustryTech           Industry = "tech"
	IndustryFinance        Industry = "finance"
	IndustryHealthcare     Industry = "healthcare"
	IndustryEducation      Industry = "education"
	IndustryManufacturing  Industry = "manufacturing"
	IndustryEcommerce      Industry = "ecommerce"
	IndustryMedia          Industry = "media"
	IndustryEntertainment  Industry = "entertainment"
	IndustryGovernment     Industry = "government"
	IndustryConsulting     Industry = "consulting"
	IndustryRetail         Industry = "retail"
	IndustryEnergy         Industry = "energy"
	IndustryTelecom        Industry = "telecom"
	IndustryTransportation Industry = "transportation"
	IndustryRealEstate     Industry = "real_estate"
	IndustryConsumerGoods  Industry = "consumer_goods"
	IndustryBiotech        Industry = "biotech"
	IndustryPharma         Industry = "pharmaceuticals"
	IndustryNonProfit      Industry = "non_profit"
	IndustryOther          Industry = "other"
)

// RoleTypes lists every accepted RoleType
var RoleTypes = []RoleType{RoleTypeIC, RoleTypeManagement, RoleTypeExecutiveManagement}

// Industries lists every accepted Industry
var Industries = []Industry{
	IndustryTech, IndustryFinance, IndustryHealthcare, IndustryEducation, IndustryManufacturing,
	IndustryEcommerce, IndustryMedia, IndustryEntertainment, IndustryGovernment, IndustryConsulting,
	IndustryRetail, IndustryEnergy, IndustryTelecom, IndustryTransportation, IndustryRealEstate,
	IndustryConsumerGoods, IndustryBiotech, IndustryPharma, IndustryNonProfit, IndustryOther,
}

// StructuredJobDescription is the extraction target for a raw job posting.
// A nil field means the source did not state it.
type StructuredJobDescription struct {
	Metadata                         JobMetadata                      `json:"metadata" jsonschema_description:"Administrative and source information about the posting."`
	CompanyOverview                  CompanyOverview                  `json:"company_overview" jsonschema_description:"Key information about the hiring organization."`
	RoleSummary                      RoleSummary                      `json:"role_summary" jsonschema_description:"High-level overview of the position."`
	ResponsibilitiesAndQualifications ResponsibilitiesAndQualifications `json:"responsibilities_and_qualifications" jsonschema_description:"Core expectations and requirements for the role."`
	CompensationAndBenefits          CompensationAndBenefits          `json:"compensation_and_benefits" jsonschema_description:"Compensation package offered."`
	AdditionalInformation            AdditionalInformation            `json:"additional_information" jsonschema_description:"Supplementary details about the role and application process."`
}

// JobMetadata holds provenance for the posting
type JobMetadata struct {
	JobID          *string `json:"job_id" jsonschema_description:"Unique job ID if provided."`
	SourceURL      *string `json:"source_url" jsonschema_description:"URL of the original posting if available."`
	DatePosted     *string `json:"date_posted" jsonschema_description:"Date the job was posted, e.g. '2024-05-01'."`
	ApplyLink      *string `json:"apply_link" jsonschema_description:"Direct link to apply for the job if provided."`
	SourcePlatform *string `json:"source_platform" jsonschema_description:"Platform or job board where this posting originated."`
}

// CompanyOverview describes the hiring organization
type CompanyOverview struct {
	CompanyName      *string   `json:"company_name" jsonschema_description:"Company name."`
	About            *string   `json:"about" jsonschema_description:"Company overview from provided information."`
	MissionAndValues *string   `json:"mission_and_values" jsonschema_description:"Company mission, vision, or values if stated."`
	Size             *string   `json:"size" jsonschema_description:"Company size details if provided."`
	Industry         *Industry `json:"industry" validate:"omitempty,industry" jsonschema_description:"Primary industry if explicitly stated, else null."`
	Locations        *string   `json:"locations" jsonschema_description:"Company or role location(s) if mentioned."`
}

// RoleSummary is the only section with a required field
type RoleSummary struct {
	Title            string    `json:"title" validate:"required" jsonschema_description:"Job title as stated."`
	JobLevel         *string   `json:"job_level" jsonschema_description:"Seniority level if stated."`
	RoleType         *RoleType `json:"role_type" validate:"omitempty,role_type" jsonschema_description:"Role type if explicitly mentioned."`
	EmploymentType   *string   `json:"employment_type" jsonschema_description:"Employment type (e.g., full-time) if stated."`
	RemoteOptions    *string   `json:"remote_options" jsonschema_description:"e.g., 'remote', 'on-site', 'hybrid' if stated."`
	TeamOrDepartment *string   `json:"team_or_department" jsonschema_description:"Team or department name if mentioned."`
}

// ResponsibilitiesAndQualifications lists duties and requirements
type ResponsibilitiesAndQualifications struct {
	Responsibilities        []string `json:"responsibilities" jsonschema_description:"List of responsibilities if provided."`
	RequiredQualifications  []string `json:"required_qualifications" jsonschema_description:"Essential qualifications if stated."`
	PreferredQualifications []string `json:"preferred_qualifications" jsonschema_description:"Preferred qualifications if stated."`
	ToolsAndTechnologies    []string `json:"tools_and_technologies" jsonschema_description:"Mentioned tools, languages, frameworks."`
}

// CompensationAndBenefits outlines pay and perks
type CompensationAndBenefits struct {
	SalaryRange      *string  `json:"salary_range" jsonschema_description:"Stated pay range if provided."`
	BonusAndEquity   *string  `json:"bonus_and_equity" jsonschema_description:"Bonus, equity, or RSU info if mentioned."`
	BenefitsAndPerks []string `json:"benefits_and_perks" jsonschema_description:"List of benefits and perks if stated."`
}

// AdditionalInformation captures details that fit no other section
type AdditionalInformation struct {
	Highlights              []string `json:"highlights" jsonschema_description:"Unique highlights if any."`
	PostingAge              *string  `json:"posting_age" jsonschema_description:"e.g., '3 weeks ago' if provided."`
	ApplicationInstructions *string  `json:"application_instructions" jsonschema_description:"Special apply instructions if stated."`
	RecruitmentProcess      *string  `json:"recruitment_process" jsonschema_description:"Notes on interview or hiring process if given."`
}

// Section names used by graders to refer to parts of a StructuredJobDescription
const (
	SectionMetadata                          = "metadata"
	SectionCompanyOverview                   = "company_overview"
	SectionRoleSummary                       = "role_summary"
	SectionResponsibilitiesAndQualifications = "responsibilities_and_qualifications"
	SectionCompensationAndBenefits           = "compensation_and_benefits"
	SectionAdditionalInformation             = "additional_information"
)

// SectionNames lists the sections in document order
var SectionNames = []string{
	SectionMetadata,
	SectionCompanyOverview,
	SectionRoleSummary,
	SectionResponsibilitiesAndQualifications,
	SectionCompensationAndBenefits,
	SectionAdditionalInformation,
}

// Clone returns a deep copy so callers can keep a previous attempt while a new one is built
func (d *StructuredJobDescription) Clone() *StructuredJobDescription {
	if d == nil {
		return nil
	}
	c := *d
	c.ResponsibilitiesAndQualifications.Responsibilities = cloneStrings(d.ResponsibilitiesAndQualifications.Responsibilities)
	c.ResponsibilitiesAndQualifications.RequiredQualifications = cloneStrings(d.ResponsibilitiesAndQualifications.RequiredQualifications)
	c.ResponsibilitiesAndQualifications.PreferredQualifications = cloneStrings(d.ResponsibilitiesAndQualifications.PreferredQualifications)
	c.ResponsibilitiesAndQualifications.ToolsAndTechnologies = cloneStrings(d.ResponsibilitiesAndQualifications.ToolsAndTechnologies)
	c.CompensationAndBenefits.BenefitsAndPerks = cloneStrings(d.CompensationAndBenefits.BenefitsAndPerks)
	c.AdditionalInformation.Highlights = cloneStrings(d.AdditionalInformation.Highlights)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
