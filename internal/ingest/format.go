package ingest

import (
	"fmt"
	"sort"
	"strings"
)

const (
	sampleRows    = 3
	sampleIssues  = 3
	textPreview   = 500
	previewLength = 200
)

// Summarize renders parsed content as human-readable message text.
func Summarize(c *Content) string {
	parts := []string{
		fmt.Sprintf("Processed file: %s", c.Filename),
		fmt.Sprintf("File type: %s", c.Kind),
		"",
	}

	switch c.Kind {
	case KindCSV:
		parts = append(parts,
			fmt.Sprintf("CSV file with %d rows", c.RowCount),
			fmt.Sprintf("Columns: %s", strings.Join(c.Columns, ", ")),
			"",
		)
		if len(c.Rows) > 0 {
			parts = append(parts, "Sample data:")
			for i, row := range c.Rows {
				if i == sampleRows {
					break
				}
				parts = append(parts, fmt.Sprintf("Row %d: %s", i+1, formatRow(c.Columns, row)))
			}
			if len(c.Rows) > sampleRows {
				parts = append(parts, fmt.Sprintf("... and %d more rows", len(c.Rows)-sampleRows))
			}
		}

	case KindJSON, KindTextWithJSON:
		if c.Document == nil {
			break
		}
		obj, isObj := c.Document.(map[string]interface{})
		keys := "Not a dictionary"
		if isObj {
			keys = strings.Join(sortedKeys(obj), ", ")
		}
		parts = append(parts, "JSON content summary:", "Keys: "+keys, "")
		if isObj {
			parts = append(parts, summarizeIssues(obj)...)
		}

	default:
		if c.Text != "" {
			parts = append(parts,
				fmt.Sprintf("Text file with %d lines", c.LineCount),
				"Content preview:",
				clip(c.Text, textPreview),
			)
		}
	}
	return strings.Join(parts, "\n")
}

// summarizeIssues lists the first findings of a scanner report that carries
// an "issues" array.
func summarizeIssues(doc map[string]interface{}) []string {
	issues, ok := doc["issues"].([]interface{})
	if !ok {
		return nil
	}
	out := []string{fmt.Sprintf("Found %d security issues:", len(issues)), ""}
	for i, it := range issues {
		if i == sampleIssues {
			break
		}
		issue, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, fmt.Sprintf("Issue %d: %s (Severity: %s)", i+1,
			stringOr(issue["title"], "Unknown"), stringOr(issue["severityCode"], "Unknown")))
	}
	if len(issues) > sampleIssues {
		out = append(out, fmt.Sprintf("... and %d more issues", len(issues)-sampleIssues))
	}
	return out
}

func formatRow(columns []string, row map[string]string) string {
	pairs := make([]string, 0, len(columns))
	for _, col := range columns {
		pairs = append(pairs, fmt.Sprintf("%s=%s", col, row[col]))
	}
	return strings.Join(pairs, ", ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringOr(v interface{}, def string) string {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Preview returns the first 200 characters of content, marked when clipped.
func Preview(content string) string {
	return clip(content, previewLength)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
