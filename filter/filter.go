// Package filter decides which resource types are excluded from scans.
package filter

import "strings"

// pattern is a compiled exclusion pattern. Config patterns ending in "*"
// become prefix patterns; anything else matches as a substring. Both are
// case-insensitive.
type pattern interface {
	matches(resourceType string) bool
}

type prefixPattern string

func (p prefixPattern) matches(resourceType string) bool {
	return strings.HasPrefix(resourceType, string(p))
}

type substringPattern string

func (p substringPattern) matches(resourceType string) bool {
	return strings.Contains(resourceType, string(p))
}

// Filter holds compiled exclusion patterns.
type Filter struct {
	patterns []pattern
}

// Compile builds a Filter from raw config patterns. Compilation happens
// once at config-load time, not per resource.
func Compile(raw []string) *Filter {
	patterns := make([]pattern, 0, len(raw))
	for _, r := range raw {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if strings.HasSuffix(r, "*") {
			patterns = append(patterns, prefixPattern(strings.TrimSuffix(r, "*")))
		} else {
			patterns = append(patterns, substringPattern(r))
		}
	}
	return &Filter{patterns: patterns}
}

// Excluded reports whether the resource type matches any exclusion pattern.
// An empty pattern list excludes nothing.
func (f *Filter) Excluded(resourceType string) bool {
	if len(f.patterns) == 0 {
		return false
	}
	typ := strings.ToLower(resourceType)
	for _, p := range f.patterns {
		if p.matches(typ) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no exclusion patterns are configured.
func (f *Filter) IsEmpty() bool {
	return len(f.patterns) == 0
}
