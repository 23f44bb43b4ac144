package tree

import (
	"regexp"
	"strings"

	"github.com/variantlab/configcore/pkg/domain/configurator"
)

// Segment grammar: a step name optionally followed by a parenthesized,
// comma-separated list of literal values. Segments are joined with ';'.
var conditionSegmentRe = regexp.MustCompile(`^\s*([^\s();,]+)\s*(\(([^()]*)\))?\s*$`)

// ParseDependencies parses a raw dependency string. A segment without a
// value list means "the referenced step holds any non-empty value".
// Segments that do not match the grammar are dropped.
func ParseDependencies(raw string) []configurator.Dependency {
	var out []configurator.Dependency
	for _, segment := range strings.Split(raw, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		match := conditionSegmentRe.FindStringSubmatch(segment)
		if match == nil {
			continue
		}
		dep := configurator.Dependency{Step: match[1]}
		if match[2] != "" {
			dep.Values = splitValues(match[3])
		}
		out = append(out, dep)
	}
	return out
}

// ParseRequiredConditions parses a raw required-condition string. Unlike
// dependencies, a segment without a parenthesized value list is discarded
// entirely rather than treated as "any value".
func ParseRequiredConditions(raw string) []configurator.RequiredCondition {
	var out []configurator.RequiredCondition
	for _, segment := range strings.Split(raw, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		match := conditionSegmentRe.FindStringSubmatch(segment)
		if match == nil || match[2] == "" {
			continue
		}
		out = append(out, configurator.RequiredCondition{
			Step:   match[1],
			Values: splitValues(match[3]),
		})
	}
	return out
}

func splitValues(raw string) []string {
	var values []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}
