package api

import (
	"regexp"
	"strings"

	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/utils"
)

var alertNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_\s]*$`)

var reservedAlertNames = map[string]struct{}{
	"default":   {},
	"system":    {},
	"admin":     {},
	"root":      {},
	"null":      {},
	"undefined": {},
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validateAnalyzeRequest checks a request body against the input rules.
// It returns all violations, not just the first.
func validateAnalyzeRequest(req models.AnalyzeRequest) []fieldError {
	var errs []fieldError

	name := strings.TrimSpace(req.AlertName)
	switch {
	case name == "":
		errs = append(errs, fieldError{Field: "alertName", Message: "alertName is required"})
	case len(name) < 3 || len(name) > 255:
		errs = append(errs, fieldError{Field: "alertName", Message: "alertName must be between 3 and 255 characters"})
	case !alertNamePattern.MatchString(name):
		errs = append(errs, fieldError{Field: "alertName", Message: "alertName must start with an alphanumeric character and contain only letters, digits, hyphens, underscores, and spaces"})
	default:
		if _, reserved := reservedAlertNames[strings.ToLower(name)]; reserved {
			errs = append(errs, fieldError{Field: "alertName", Message: "alertName is reserved"})
		}
	}

	if strings.TrimSpace(req.UserID) == "" {
		errs = append(errs, fieldError{Field: "userId", Message: "userId is required"})
	}
	if strings.TrimSpace(req.AccountID) == "" {
		errs = append(errs, fieldError{Field: "accountId", Message: "accountId is required"})
	}

	if req.Timestamp == "" {
		errs = append(errs, fieldError{Field: "timestamp", Message: "timestamp is required"})
	} else if _, err := utils.ParseRFC3339(req.Timestamp); err != nil {
		errs = append(errs, fieldError{Field: "timestamp", Message: "timestamp must be a valid RFC 3339 datetime"})
	}

	return errs
}
