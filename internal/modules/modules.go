// Package modules checks that every client module an identification method
// needs was linked into the host.
package modules

import (
	"identhub/internal/domain"
	pstrings "identhub/pkg/platform/strings"
)

// Name is a linkable feature module.
type Name string

const (
	Core       Name = "core"
	Bank       Name = "bank"
	Fourthline Name = "fourthline"
	QES        Name = "qes"
)

// Set is the modules linked into a host.
type Set map[Name]struct{}

func NewSet(names ...Name) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// ParseSet builds a Set from config strings; core is always present.
func ParseSet(values []string) Set {
	s := NewSet(Core)
	for _, v := range pstrings.DedupeAndTrimLower(values) {
		s[Name(v)] = struct{}{}
	}
	return s
}

func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Required lists the modules the first and fallback steps need, without
// repeats, in order of appearance.
func Required(method domain.IdentificationMethod) []string {
	all := append([]string(nil), method.FirstStep.RequiredModules...)
	if method.FallbackStep != nil {
		all = append(all, method.FallbackStep.RequiredModules...)
	}
	return pstrings.DedupeAndTrimLower(all)
}

// Validate fails with modules_not_found listing every required module that
// is not linked.
func Validate(method domain.IdentificationMethod, linked Set) error {
	var missing []string
	for _, name := range Required(method) {
		if !linked.Has(Name(name)) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.ModulesNotFound(missing)
	}
	return nil
}
