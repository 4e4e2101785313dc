package utils

import "strings"

// ParseCSV splits a comma-separated list into trimmed non-empty values.
// Duplicates are dropped, keeping the first occurrence. Returns nil when no
// value is left.
// Used for list-valued environment variables and query parameters.
func ParseCSV(s string) []string {
	return parseList(s, strings.TrimSpace)
}

// ParseCSVUpper is ParseCSV for enum-like lists such as event or asset types:
// values are upper-cased before duplicates are dropped, so "risk_alert,
// RISK_ALERT" yields a single RISK_ALERT.
func ParseCSVUpper(s string) []string {
	return parseList(s, func(v string) string {
		return strings.ToUpper(strings.TrimSpace(v))
	})
}

func parseList(s string, normalize func(string) string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var result []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		v = normalize(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}

	return result
}
