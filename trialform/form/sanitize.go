package form

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitizer returns a policy that allows no markup at all.  Script and style
// elements are dropped together with their content.
func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// SanitizeString strips markup and executable content from a single value.
// The result is HTML-escaped text, like the markup serialisation of a
// sanitised DOM fragment.
func SanitizeString(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(sanitizer().Sanitize(raw))
}

// Sanitize returns a copy of the values with every field sanitized.
func Sanitize(v Values) Values {
	return Values{
		FirstName: SanitizeString(v.FirstName),
		LastName:  SanitizeString(v.LastName),
		Email:     SanitizeString(v.Email),
		Password:  SanitizeString(v.Password),
	}
}
