package session

import (
	"strings"

	"github.com/khrees2412/mockly/pkg/models"
)

// RequiredFields lists the profile fields an interview cannot start without
var RequiredFields = []string{models.FieldName, models.FieldEmail, models.FieldPhone}

// MissingFields returns the required fields that are still blank
func MissingFields(p models.CandidateProfile) []string {
	missing := []string{}
	values := map[string]string{
		models.FieldName:  p.Name,
		models.FieldEmail: p.Email,
		models.FieldPhone: p.Phone,
	}
	for _, field := range RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// MergeProfile applies non-blank field values and recomputes the missing list
func MergeProfile(p models.CandidateProfile, fields map[string]string) (models.CandidateProfile, error) {
	for key, value := range fields {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case models.FieldName:
			p.Name = value
		case models.FieldEmail:
			if !strings.Contains(value, "@") {
				return p, &ValidationError{Field: key, Reason: "not a valid email address"}
			}
			p.Email = value
		case models.FieldPhone:
			p.Phone = value
		case "role":
			p.Role = value
		default:
			return p, &ValidationError{Field: key, Reason: "unknown profile field"}
		}
	}
	p.MissingFields = MissingFields(p)
	return p, nil
}
