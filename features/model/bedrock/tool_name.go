package bedrock

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	toolNameMaxLen  = 64
	toolNameHashLen = 8
)

// SanitizeToolName maps a canonical tool identifier (for example,
// "atlas.read.get_time_series") to a Bedrock-compatible tool name. It is an
// exported wrapper around sanitizeToolName; the adapter's tool encoding and
// diagnostics call it as well.
func SanitizeToolName(in string) string {
	return sanitizeToolName(in)
}

// sanitizeToolName maps a canonical tool identifier to characters allowed by
// the Bedrock constraint [a-zA-Z0-9_-]+ by replacing any disallowed rune with
// '_'. Unlike OpenAI-style providers, Bedrock imposes stricter constraints on
// tool names and some models/providers surface only the tool name string in
// tool use blocks.
//
// Contract:
//   - The mapping must be deterministic and collision-free within a request.
//   - The mapping must preserve namespace information from canonical IDs so
//     two different tools cannot sanitize to the same provider-visible name.
//
// Canonical tool identifiers use dot-separated namespaces (e.g.
// "toolset.tool" or "atlas.read.get_time_series"). The full canonical ID is
// kept, '.' is replaced with '_', and the Bedrock rune constraint is applied.
// If the sanitized name would exceed Bedrock's documented 64-character
// limit, it is truncated and a short stable hash suffix derived from the
// canonical ID is appended.
func sanitizeToolName(in string) string {
	if in == "" {
		return ""
	}
	sanitized := toolNameRunes(in)
	if len(sanitized) <= toolNameMaxLen {
		return sanitized
	}
	return truncateToolName(in, sanitized)
}

// toolNameRunes applies the Bedrock rune constraint without the truncation
// step; '.' is first folded to '_' like every other disallowed rune.
func toolNameRunes(in string) string {
	if isToolNameSafe(in) {
		return strings.ReplaceAll(in, ".", "_")
	}
	out := make([]rune, 0, len(in))
	for _, r := range in {
		if r == '.' {
			r = '_'
		}
		if isToolNameRune(r) {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

// isToolNameSafe reports whether in is already allocation-free convertible:
// every rune is either an allowed tool-name rune or a '.' to be folded.
func isToolNameSafe(in string) bool {
	for _, r := range in {
		if r == '.' {
			continue
		}
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

// truncateToolName keeps sanitized within Bedrock's documented 64-character
// limit by truncating and appending a stable hash suffix derived from the
// original canonical ID, preserving uniqueness across collisions.
func truncateToolName(canonical, sanitized string) string {
	sum := sha256.Sum256([]byte(canonical))
	suffix := hex.EncodeToString(sum[:])[:toolNameHashLen]

	prefixLen := toolNameMaxLen - (1 + toolNameHashLen)
	if prefixLen < 1 {
		prefixLen = 1
	}
	return sanitized[:prefixLen] + "_" + suffix
}
