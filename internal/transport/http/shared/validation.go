package shared

import (
	"net/http"
	"strings"
	"time"

	"peopledesk/internal/transport/http/api"
)

// Validator accumulates field problems and rejects the request with a
// single 400 once any exist.
type Validator struct {
	issues []string
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	v.issues = append(v.issues, field+" "+reason)
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Enum matches case-insensitively and returns the canonical spelling, so
// callers store the constant rather than the raw request casing. A miss
// records an issue and returns the value unchanged.
func (v *Validator) Enum(field, value string, allowed []string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	for _, candidate := range allowed {
		if strings.EqualFold(value, candidate) {
			return candidate
		}
	}
	v.Add(field, "must be one of: "+strings.Join(allowed, ", "))
	return value
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) Range(field string, value, min, max float64) {
	if value < min || value > max {
		v.Add(field, "is out of range")
	}
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

// Reject writes the 400 response when issues exist and reports whether
// it did.
func (v *Validator) Reject(w http.ResponseWriter) bool {
	if !v.HasIssues() {
		return false
	}
	api.Fail(w, http.StatusBadRequest, strings.Join(v.issues, "; "))
	return true
}
