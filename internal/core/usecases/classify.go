package usecases

import (
	"regexp"
	"strings"
)

// QueryKind tags the shape of a location query so the resolution chain can
// dispatch on it instead of re-matching patterns at every step.
type QueryKind int

const (
	FreeTextQuery QueryKind = iota
	PostcodeQuery           // full UK postcode, e.g. "SW1A 1AA"
	OutcodeQuery            // outward code only, e.g. "SW1A"
)

var (
	postcodePattern = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9][A-Za-z0-9]?\s*[0-9][A-Za-z]{2}$`)
	outcodePattern  = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9][A-Za-z0-9]?$`)
)

// ClassifyQuery decides which resolution strategy applies to a query.
// The postcode shape is strict and checked first; the outcode shape is a
// looser prefix match; everything else is free text for the geocoder.
func ClassifyQuery(query string) QueryKind {
	query = strings.TrimSpace(query)
	switch {
	case postcodePattern.MatchString(query):
		return PostcodeQuery
	case outcodePattern.MatchString(query):
		return OutcodeQuery
	default:
		return FreeTextQuery
	}
}
