package validation

import (
	"regexp"
	"strings"
)

// FieldRule is a per-field check: a minimum length, a pattern, or both
type FieldRule struct {
	Field     string
	MinLength int
	Pattern   *regexp.Regexp
}

// Check reports whether value satisfies the rule. Patterns search the value,
// they are not implicitly anchored.
func (r FieldRule) Check(value string) bool {
	if r.MinLength > 0 && len(value) < r.MinLength {
		return false
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return false
	}
	return true
}

var (
	birthdayRegex  = regexp.MustCompile(`^([0][1-9]|[1-2][0-9]|30|31)/([0][1-9]|10|11|12)/(19[0-9][0-9]|20[0-1][0-9]|2020)`)
	zipcodeRegex   = regexp.MustCompile(`\d{5}`)
	isoDateRegex   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	clockTimeRegex = regexp.MustCompile(`\d{2}:\d{2}`)
	dayOnlyRegex   = regexp.MustCompile(`^(\d{2})$`)
	dayMonthRegex  = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

// FormRules are the certificate form checks, in form order
var FormRules = []FieldRule{
	{Field: "firstname", MinLength: 1},
	{Field: "lastname", MinLength: 1},
	{Field: "birthday", Pattern: birthdayRegex},
	{Field: "lieunaissance", MinLength: 1},
	{Field: "address", MinLength: 1},
	{Field: "town", MinLength: 1},
	{Field: "zipcode", Pattern: zipcodeRegex},
	{Field: "datesortie", Pattern: isoDateRegex},
	{Field: "heuresortie", Pattern: clockTimeRegex},
}

// InvalidFields runs every rule against fields and returns the names of the
// failing ones in rule order. A field absent from the map counts as empty.
func InvalidFields(fields map[string]string) []string {
	var invalid []string
	for _, rule := range FormRules {
		if !rule.Check(fields[rule.Field]) {
			invalid = append(invalid, rule.Field)
		}
	}
	return invalid
}

// AddSlash appends the separator once the day, then the month, has been
// typed, and collapses doubled slashes.
func AddSlash(input string) string {
	s := dayOnlyRegex.ReplaceAllString(input, "$1/")
	s = dayMonthRegex.ReplaceAllString(s, "$1/$2/")
	return strings.ReplaceAll(s, "//", "/")
}
