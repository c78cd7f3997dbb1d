package cmd

import (
	"github.com/Iron-Ham/cohort/internal/errors"
)

// ErrorMessage formats an error returned by Execute for stderr. Critical
// errors that are not user-facing point at a defect in cohort rather than in
// the input, and are labelled so they get reported.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if !errors.IsUserFacing(err) && errors.GetSeverity(err) == errors.SeverityCritical {
		return "Internal error: " + err.Error() + "\nThis is a bug in cohort, please report it."
	}
	return "Error: " + err.Error()
}
