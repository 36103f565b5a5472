// Package model defines JSON helpers for marshaling and unmarshaling provider
// message parts. This file focuses on decoding messages and discriminating
// concrete part types based on the Kind field.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalJSON encodes a Message while preserving the concrete Part types stored
// in Parts via an explicit Kind discriminator.
//
// This ensures round-trips through JSON do not lose type information when Parts
// are stored as an interface slice.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias struct {
		Role  ConversationRole `json:"Role"`  //nolint:tagliatelle
		Parts []any            `json:"Parts"` //nolint:tagliatelle
		Meta  map[string]any   `json:"Meta"`  //nolint:tagliatelle
	}
	if len(m.Parts) == 0 {
		return json.Marshal(alias{Role: m.Role, Meta: m.Meta})
	}

	parts := make([]any, 0, len(m.Parts))
	for i, p := range m.Parts {
		enc, err := encodeMessagePart(p)
		if err != nil {
			return nil, fmt.Errorf("encode parts[%d]: %w", i, err)
		}
		parts = append(parts, enc)
	}

	return json.Marshal(alias{Role: m.Role, Parts: parts, Meta: m.Meta})
}

// UnmarshalJSON decodes a Message while materializing concrete Part
// implementations stored in the Parts slice.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role  ConversationRole `json:"Role"` //nolint:tagliatelle
		Parts []json.RawMessage
		Meta  map[string]any `json:"Meta"` //nolint:tagliatelle
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	m.Role = tmp.Role
	m.Meta = tmp.Meta
	if len(tmp.Parts) == 0 {
		m.Parts = nil
		return nil
	}
	m.Parts = make([]Part, 0, len(tmp.Parts))
	for i, raw := range tmp.Parts {
		part, err := decodeMessagePart(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

// encodeMessagePart prepares p for inclusion in a Message's Parts array.
//
// ThinkingPart, TextPart, ToolUsePart, ToolResultPart, and CacheCheckpointPart
// already tag themselves via their own MarshalJSON (json_marshal.go), so they
// pass through untouched; wrapping them in an outer struct here would let that
// method get promoted onto the wrapper and silently swallow any field the
// wrapper added. The remaining kinds have no MarshalJSON of their own and need
// the discriminator spliced in explicitly.
func encodeMessagePart(p Part) (any, error) {
	switch v := p.(type) {
	case ImagePart:
		return rawKind("image", v)
	case DocumentPart:
		return rawKind("document", v)
	case CitationsPart:
		return rawKind("citations", v)
	case ThinkingPart, TextPart, ToolUsePart, ToolResultPart, CacheCheckpointPart:
		return v, nil
	default:
		return nil, fmt.Errorf("unknown part type %T", p)
	}
}

func rawKind(kind string, v any) (json.RawMessage, error) {
	raw, err := withKind(kind, v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// partDecoder materializes a concrete Part from a Kind-tagged payload. raw is
// the full part object; obj is its already-parsed field map, reused across
// decoders so none of them need to re-parse the payload.
type partDecoder func(raw json.RawMessage, obj map[string]json.RawMessage) (Part, error)

var kindDecoders = map[string]partDecoder{
	"image":            decodeImagePart,
	"document":         decodeDocumentPart,
	"thinking":         decodeThinkingPart,
	"citations":        decodeCitationsPart,
	"tool_result":      decodeToolResultPart,
	"tool_use":         decodeToolUsePart,
	"text":             decodeTextPart,
	"cache_checkpoint": func(json.RawMessage, map[string]json.RawMessage) (Part, error) { return CacheCheckpointPart{}, nil },
}

func decodeMessagePart(raw json.RawMessage) (Part, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		var text string
		if errText := json.Unmarshal(raw, &text); errText == nil {
			return TextPart{Text: text}, nil
		}
		return nil, fmt.Errorf("decode part object: %w", err)
	}
	if len(obj) == 0 {
		return nil, errors.New("empty part payload")
	}

	if kindRaw, ok := obj["Kind"]; ok {
		var kind string
		if err := json.Unmarshal(kindRaw, &kind); err != nil {
			return nil, fmt.Errorf("decode Kind: %w", err)
		}
		decode, ok := kindDecoders[kind]
		if !ok {
			return nil, fmt.Errorf("unknown part kind %q", kind)
		}
		return decode(raw, obj)
	}

	return decodeLegacyShape(raw, obj)
}

// decodeLegacyShape infers a Part's type from the fields present when no Kind
// discriminator was written, for payloads that predate it.
func decodeLegacyShape(raw json.RawMessage, obj map[string]json.RawMessage) (Part, error) {
	switch {
	case hasAnyKey(obj, "Signature", "Redacted", "Index", "Final"):
		return decodeThinkingPart(raw, obj)
	case hasAnyKey(obj, "ToolUseID"):
		return decodeToolResultPart(raw, obj)
	case hasAnyKey(obj, "Name"):
		return decodeToolUsePart(raw, obj)
	case hasAnyKey(obj, "Text"):
		return decodeTextPart(raw, obj)
	default:
		return nil, errors.New("unknown part shape")
	}
}

func decodeImagePart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var img ImagePart
	if err := json.Unmarshal(raw, &img); err != nil {
		return nil, fmt.Errorf("decode ImagePart: %w", err)
	}
	if img.Format == "" {
		return nil, errors.New("ImagePart requires Format")
	}
	if len(img.Bytes) == 0 {
		return nil, errors.New("ImagePart requires Bytes")
	}
	return img, nil
}

func decodeDocumentPart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var doc DocumentPart
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode DocumentPart: %w", err)
	}
	if doc.Name == "" {
		return nil, errors.New("DocumentPart requires Name")
	}
	sourceCount := 0
	if len(doc.Bytes) > 0 {
		sourceCount++
	}
	if doc.Text != "" {
		sourceCount++
	}
	if len(doc.Chunks) > 0 {
		sourceCount++
	}
	if doc.URI != "" {
		sourceCount++
	}
	if sourceCount != 1 {
		return nil, errors.New("DocumentPart requires exactly one of Bytes, Text, Chunks, or URI")
	}
	for i, chunk := range doc.Chunks {
		if chunk == "" {
			return nil, fmt.Errorf("DocumentPart requires non-empty Chunks[%d]", i)
		}
	}
	return doc, nil
}

func decodeThinkingPart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var thinking ThinkingPart
	if err := json.Unmarshal(raw, &thinking); err != nil {
		return nil, fmt.Errorf("decode ThinkingPart: %w", err)
	}
	return thinking, nil
}

func decodeCitationsPart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var citations CitationsPart
	if err := json.Unmarshal(raw, &citations); err != nil {
		return nil, fmt.Errorf("decode CitationsPart: %w", err)
	}
	return citations, nil
}

func decodeToolResultPart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var result ToolResultPart
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode ToolResultPart: %w", err)
	}
	if result.ToolUseID == "" {
		return nil, errors.New("ToolResultPart requires ToolUseID")
	}
	return result, nil
}

func decodeToolUsePart(raw json.RawMessage, obj map[string]json.RawMessage) (Part, error) {
	var use ToolUsePart
	if err := json.Unmarshal(raw, &use); err != nil {
		return nil, fmt.Errorf("decode ToolUsePart: %w", err)
	}
	if use.Name == "" {
		return nil, errors.New("ToolUsePart requires Name")
	}
	if use.Input == nil {
		if v, hasArgs := obj["Args"]; hasArgs {
			var args any
			if err := json.Unmarshal(v, &args); err != nil {
				return nil, fmt.Errorf("decode ToolUsePart Args: %w", err)
			}
			use.Input = args
		}
	}
	return use, nil
}

func decodeTextPart(raw json.RawMessage, _ map[string]json.RawMessage) (Part, error) {
	var text TextPart
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("decode TextPart: %w", err)
	}
	return text, nil
}

func hasAnyKey(obj map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
