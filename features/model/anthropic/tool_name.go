package anthropic

import "strings"

// sanitizeToolName maps a canonical tool identifier to characters allowed by
// Anthropic tool naming constraints by replacing any disallowed rune with '_'.
// Canonical tool identifiers follow the pattern "toolset.tool". To keep tool
// names concise and avoid redundant prefixes in provider-facing configs, this
// helper derives the base name from the segment after the final '.' and, when
// present, strips a "<toolset_suffix>_" prefix.
func sanitizeToolName(in string) string {
	if in == "" {
		return in
	}
	base := baseToolName(in)
	if isProviderSafeToolName(base) {
		return base
	}
	return escapeToolName(base)
}

func baseToolName(in string) string {
	idx := strings.LastIndex(in, ".")
	if idx < 0 || idx+1 >= len(in) {
		return in
	}
	base := in[idx+1:]
	if idx == 0 {
		return base
	}
	lastDot := strings.LastIndex(in[:idx], ".")
	if lastDot < 0 || lastDot+1 >= idx {
		return base
	}
	prefix := in[lastDot+1:idx] + "_"
	if len(base) > len(prefix) && strings.HasPrefix(base, prefix) {
		return base[len(prefix):]
	}
	return base
}

func escapeToolName(base string) string {
	out := make([]rune, 0, len(base))
	for _, r := range base {
		if isToolNameRune(r) {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

func isProviderSafeToolName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if !isToolNameRune(r) {
			return false
		}
	}
	return true
}

func isToolNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '-'
}
