package routepath

import (
	"net/url"
	"strconv"
)

const (
	Root = "/"
)

const (
	StaticPrefix = "/static/"
)

const (
	Features         = "/features"
	FeaturesEvaluate = "/features/evaluate"
)

const (
	Cohorts       = "/cohorts"
	CohortsPrefix = "/cohorts/"
)

func Cohort(cohortID int64) string {
	return CohortsPrefix + strconv.FormatInt(cohortID, 10)
}

// WithMessage appends a flash message to path.
func WithMessage(path string, message string) string {
	if message == "" {
		return path
	}
	return path + "?" + url.Values{"message": {message}}.Encode()
}
