package parser

import (
	"fmt"
	"league-tracker/internal/domain"
	"strings"
)

// Stat keys the extractor reads. Anything else in the stats bag is ignored.
var knownStatKeys = []string{"tier", "division", "rating", "matchesPlayed", "winStreak"}

var knownStatMetadataKeys = []string{"name", "iconUrl", "tierName"}

type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return "segment failed schema validation: " + strings.Join(e.Issues, "; ")
}

// ValidateSegment checks the stats bag of seg before any typed access.
func ValidateSegment(seg domain.RawSegment) error {
	return ValidateStats(seg.Stats)
}

func ValidateStats(stats map[string]any) error {
	var issues []string
	for _, key := range knownStatKeys {
		raw, ok := stats[key]
		if !ok || raw == nil {
			continue
		}
		path := "stats." + key
		stat, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, typeIssue(path, "object", raw))
			continue
		}

		if v, ok := stat["value"]; ok && v != nil && !isNumber(v) {
			issues = append(issues, typeIssue(path+".value", "number or null", v))
		}
		if v, ok := stat["displayValue"]; ok && v != nil {
			if _, isStr := v.(string); !isStr {
				issues = append(issues, typeIssue(path+".displayValue", "string or null", v))
			}
		}

		meta, ok := stat["metadata"]
		if !ok || meta == nil {
			continue
		}
		metaMap, ok := meta.(map[string]any)
		if !ok {
			issues = append(issues, typeIssue(path+".metadata", "object", meta))
			continue
		}
		for _, mk := range knownStatMetadataKeys {
			if v, ok := metaMap[mk]; ok && v != nil {
				if _, isStr := v.(string); !isStr {
					issues = append(issues, typeIssue(path+".metadata."+mk, "string or null", v))
				}
			}
		}
	}

	if len(issues) > 0 {
		return &SchemaError{Issues: issues}
	}
	return nil
}

func typeIssue(path, expected string, got any) string {
	return fmt.Sprintf("%s: expected %s, got %s", path, expected, jsonTypeName(got))
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
