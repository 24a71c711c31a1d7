package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// Matches ", ($n, $n, ...)" tuples after the first one in a VALUES list.
	extraValueTuplesRegex = regexp.MustCompile(`(VALUES \([^)]*\))((?:, \([^)]*\))+)`)
)

// formatDBQueryForTrace collapses whitespace and folds multi-row VALUES lists
// (lineup inserts write one tuple per selection) before truncating.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = extraValueTuplesRegex.ReplaceAllStringFunc(normalized, func(m string) string {
		parts := extraValueTuplesRegex.FindStringSubmatch(m)
		extra := strings.Count(parts[2], ", (")
		return parts[1] + " /* +" + strconv.Itoa(extra) + " rows */"
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
