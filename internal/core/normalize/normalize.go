// Package normalize maps free-text extracted values onto the canonical
// engineering vocabulary. Resolution is pure given a rule set; callers
// persist any heuristic successes as new auto rules.
package normalize

import (
	"strings"
	"unicode"
)

// Source fields a mapping rule can target.
const (
	FieldBarSize = "bar_size"
	FieldGrade   = "grade"
	FieldShape   = "shape_code"
)

// How a value was resolved.
const (
	SourceRule      = "rule"      // matched an existing mapping rule
	SourceCanonical = "canonical" // already canonical
	SourceHeuristic = "heuristic" // recovered by a field heuristic
	SourceRaw       = "raw"       // unresolvable, raw value passed through
)

// DefaultGrade is assumed downstream when the grade is missing.
const DefaultGrade = "400W"

// canonicalBarSizes is the fixed metric bar vocabulary.
var canonicalBarSizes = []string{"10M", "15M", "20M", "25M", "30M", "35M", "45M", "55M"}

// canonicalGrades is the fixed steel grade vocabulary.
var canonicalGrades = []string{"300W", "400W", "500W"}

// CanonicalBarSizes returns a copy of the bar-size vocabulary.
func CanonicalBarSizes() []string {
	return append([]string(nil), canonicalBarSizes...)
}

// CanonicalGrades returns a copy of the grade vocabulary.
func CanonicalGrades() []string {
	return append([]string(nil), canonicalGrades...)
}

// IsCanonicalBarSize reports whether v is exactly a canonical bar size
// (case-insensitive, surrounding whitespace ignored).
func IsCanonicalBarSize(v string) bool {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, c := range canonicalBarSizes {
		if v == c {
			return true
		}
	}
	return false
}

// IsCanonicalGrade reports whether v is exactly a canonical grade.
func IsCanonicalGrade(v string) bool {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, c := range canonicalGrades {
		if v == c {
			return true
		}
	}
	return false
}

// RuleSet is a tenant's mapping-rule table indexed for case-insensitive
// lookup on (field, source value).
type RuleSet struct {
	m map[string]string
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{m: make(map[string]string)}
}

func ruleKey(field, source string) string {
	return field + "\x00" + strings.ToLower(strings.TrimSpace(source))
}

// Add registers a rule. Last writer wins, matching the unique-key
// semantics of the stored table.
func (rs *RuleSet) Add(field, source, mapped string) {
	rs.m[ruleKey(field, source)] = mapped
}

// Lookup resolves a raw value through the rule table.
func (rs *RuleSet) Lookup(field, raw string) (string, bool) {
	v, ok := rs.m[ruleKey(field, raw)]
	return v, ok
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.m)
}

// Result is the outcome of resolving one raw value.
type Result struct {
	Value  string
	Source string
}

// Resolve maps a raw extracted value for the given field. Order: existing
// rule, canonical enumeration, field heuristic, raw passthrough. A
// SourceHeuristic result should be captured as a new auto rule by the caller.
func Resolve(rules *RuleSet, field, raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Value: "", Source: SourceRaw}
	}

	if rules != nil {
		if mapped, ok := rules.Lookup(field, trimmed); ok {
			return Result{Value: mapped, Source: SourceRule}
		}
	}

	switch field {
	case FieldBarSize:
		if IsCanonicalBarSize(trimmed) {
			return Result{Value: strings.ToUpper(trimmed), Source: SourceCanonical}
		}
		if v, ok := barSizeHeuristic(trimmed); ok {
			return Result{Value: v, Source: SourceHeuristic}
		}
	case FieldGrade:
		if IsCanonicalGrade(trimmed) {
			return Result{Value: strings.ToUpper(trimmed), Source: SourceCanonical}
		}
		if v, ok := gradeHeuristic(trimmed); ok {
			return Result{Value: v, Source: SourceHeuristic}
		}
	}

	// No heuristic exists for shape codes; validation flags whatever
	// passes through here.
	return Result{Value: trimmed, Source: SourceRaw}
}

// barSizeHeuristic extracts a leading integer followed by "M" ("20 m",
// "20m" -> "20M") and accepts it only if canonical.
func barSizeHeuristic(raw string) (string, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	compact = strings.ToUpper(compact)

	i := 0
	for i < len(compact) && compact[i] >= '0' && compact[i] <= '9' {
		i++
	}
	if i == 0 || compact[i:] != "M" {
		return "", false
	}

	candidate := compact[:i] + "M"
	if !IsCanonicalBarSize(candidate) {
		return "", false
	}
	return candidate, true
}

// gradeHeuristic strips non-digits and appends "W" ("400" or "gr 400"
// -> "400W") and accepts the result only if canonical.
func gradeHeuristic(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "", false
	}

	candidate := digits.String() + "W"
	if !IsCanonicalGrade(candidate) {
		return "", false
	}
	return candidate, true
}
