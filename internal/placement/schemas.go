package placement

import "placement-core/internal/common/validation"

var datePattern = "^\\d{4}-\\d{2}-\\d{2}$"

func createInternshipSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"title", "level", "openDate", "closeDate", "maxSlots"},
		Properties: map[string]validation.Property{
			"title": {
				Type:        "string",
				Description: "Posting title",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(255),
			},
			"description": {
				Type:        "string",
				Description: "Posting description",
				MaxLength:   validation.IntPtr(4000),
			},
			"level": {
				Type:        "string",
				Description: "Required seniority level",
				MinLength:   validation.IntPtr(1),
			},
			"preferredMajor": {
				Type:        "string",
				Description: "Preferred student major",
				MaxLength:   validation.IntPtr(255),
			},
			"openDate": {
				Type:        "string",
				Description: "First day applications are accepted (YYYY-MM-DD)",
				Pattern:     &datePattern,
			},
			"closeDate": {
				Type:        "string",
				Description: "Last day applications are accepted (YYYY-MM-DD)",
				Pattern:     &datePattern,
			},
			"maxSlots": {
				Type:        "integer",
				Description: "Total confirmed placements this posting can hold",
				Minimum:     validation.Float64Ptr(1),
			},
		},
		AdditionalProperties: false,
	}
}

func applySchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"internshipId"},
		Properties: map[string]validation.Property{
			"internshipId": {
				Type:        "string",
				Description: "Posting the student applies to",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(64),
			},
		},
		AdditionalProperties: false,
	}
}

func withdrawalRequestSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"applicationId", "reason"},
		Properties: map[string]validation.Property{
			"applicationId": {
				Type:        "string",
				Description: "Application to withdraw from",
				MinLength:   validation.IntPtr(1),
			},
			"reason": {
				Type:        "string",
				Description: "Why the student wants to withdraw",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(500),
			},
		},
		AdditionalProperties: false,
	}
}
