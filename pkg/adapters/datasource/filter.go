package datasource

import "strings"

// ResolveTables applies a comma-separated filter to the enumerated tables.
// A blank filter selects every table in enumeration order. Otherwise names
// are trimmed, empties dropped, unknown names silently omitted and duplicates
// removed, keeping the filter's order.
func ResolveTables(existing []string, filter string) []string {
	return ResolveTablesWith(existing, filter, nil)
}

// ResolveTablesWith is ResolveTables with a fallback: a filter entry that
// matches no table exactly is retried as normalize(entry).
func ResolveTablesWith(existing []string, filter string, normalize func(string) string) []string {
	if strings.TrimSpace(filter) == "" {
		return append([]string(nil), existing...)
	}

	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var result []string
	for _, part := range strings.Split(filter, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			if normalize == nil {
				continue
			}
			name = normalize(name)
			if _, ok := known[name]; !ok {
				continue
			}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

var commentNewlines = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// StripNewlines removes embedded line breaks so comments render on one line.
func StripNewlines(s string) string {
	return commentNewlines.Replace(s)
}
