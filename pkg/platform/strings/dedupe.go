// Package strings provides small list helpers shared by config parsing and
// module validation.
package strings

import (
	"strings"
)

// DedupeAndTrim drops blanks and repeats, trimming each element.
// First occurrence wins, so order of appearance is kept.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim with case folding, for module and
// step names that arrive from env vars in arbitrary case.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

// SplitList splits a comma separated env value into a clean lowercase list.
//
//	SplitList(" core, QES,,qes ") // []string{"core", "qes"}
func SplitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(csv, ","))
}

func dedupe(values []string, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
