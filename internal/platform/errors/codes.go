// Package errors provides structured domain errors for the admin surfaces.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Feature errors
	CodeFeatureUnknown  Code = "FEATURE_UNKNOWN"
	CodeRegistryInvalid Code = "REGISTRY_INVALID"

	// Cohort errors
	CodeCohortNotFound  Code = "COHORT_NOT_FOUND"
	CodeCohortNameEmpty Code = "COHORT_NAME_EMPTY"
	CodeCohortNameTaken Code = "COHORT_NAME_TAKEN"

	// User errors
	CodeUserNotFound  Code = "USER_NOT_FOUND"
	CodeUsernameEmpty Code = "USERNAME_EMPTY"

	// Request errors
	CodeCSRFInvalid Code = "CSRF_INVALID"
)

// HTTPStatus maps the code to the status an HTTP handler should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCohortNameEmpty,
		CodeUsernameEmpty,
		CodeRegistryInvalid:
		return http.StatusBadRequest

	case CodeFeatureUnknown,
		CodeCohortNotFound,
		CodeUserNotFound:
		return http.StatusNotFound

	case CodeCohortNameTaken:
		return http.StatusConflict

	case CodeCSRFInvalid:
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}

// MessageKey returns the i18n message key used to render the code to operators.
func (c Code) MessageKey() string {
	switch c {
	case CodeFeatureUnknown:
		return "error.feature_unknown"
	case CodeCohortNotFound:
		return "error.cohort_not_found"
	case CodeCohortNameEmpty:
		return "error.cohort_name_empty"
	case CodeCohortNameTaken:
		return "error.cohort_name_taken"
	case CodeUserNotFound:
		return "error.user_not_found"
	case CodeUsernameEmpty:
		return "error.username_empty"
	case CodeCSRFInvalid:
		return "error.csrf_invalid"
	default:
		return "error.internal"
	}
}
