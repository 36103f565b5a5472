// Package model defines JSON helpers for marshaling provider message parts.
// This file emits discriminated unions for ThinkingPart, TextPart, ToolUsePart,
// ToolResultPart, and CacheCheckpointPart so decode logic can recover the
// concrete types.
package model

import "encoding/json"

// withKind marshals v and splices a leading "Kind" field into the resulting
// object, avoiding a struct-embedding wrapper whose promoted MarshalJSON (if v
// itself defines one) would otherwise shadow the field entirely.
func withKind(kind string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(raw) == 2 { // "{}"
		return []byte(`{"Kind":"` + kind + `"}`), nil
	}
	head, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(raw)+len(head)+8)
	out = append(out, `{"Kind":`...)
	out = append(out, head...)
	out = append(out, ',')
	out = append(out, raw[1:]...)
	return out, nil
}

// MarshalJSON encodes ThinkingPart with a Kind discriminator so that concrete
// part types can be recovered reliably when stored as generic Parts.
func (p ThinkingPart) MarshalJSON() ([]byte, error) {
	type alias ThinkingPart
	return withKind("thinking", alias(p))
}

// MarshalJSON encodes TextPart with a Kind discriminator to distinguish it from
// ThinkingPart in generic JSON payloads.
func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return withKind("text", alias(p))
}

// MarshalJSON encodes ToolUsePart with a Kind discriminator so decode logic can
// reconstruct tool_use blocks precisely.
func (p ToolUsePart) MarshalJSON() ([]byte, error) {
	type alias ToolUsePart
	return withKind("tool_use", alias(p))
}

// MarshalJSON encodes ToolResultPart with a Kind discriminator so decode logic
// can reconstruct tool_result blocks precisely.
func (p ToolResultPart) MarshalJSON() ([]byte, error) {
	type alias ToolResultPart
	return withKind("tool_result", alias(p))
}

// MarshalJSON encodes CacheCheckpointPart with a Kind discriminator so decode
// logic can reconstruct cache checkpoint blocks precisely.
func (p CacheCheckpointPart) MarshalJSON() ([]byte, error) {
	type alias CacheCheckpointPart
	return withKind("cache_checkpoint", alias(p))
}
