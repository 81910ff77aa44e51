package web

import (
	"net/http"
	"strconv"
	"strings"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// Gte returns a ParamValidator that accepts values greater than or equal to min.
func Gte(min int64) ParamValidator {
	return newComparisonValidator(min, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// QueryIntOr parses the query parameter key as a base-10 integer.
// Missing, malformed, out-of-range or rejected values yield fallback.
func QueryIntOr(r *http.Request, key string, fallback int, pValidator ParamValidator) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		return fallback
	}
	return int(intValue)
}
