package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UnmarshalJSON customizes Message decoding so that Parts (which contain
// interface implementations) can be reconstructed from stored JSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role  string            `json:"Role"`  //nolint:tagliatelle
		Parts []json.RawMessage `json:"Parts"` //nolint:tagliatelle
		Meta  map[string]any    `json:"Meta"`  //nolint:tagliatelle
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
		part, err := decodeLedgerPart(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

// partShapes orders the key-presence checks decodeLedgerPart uses to infer a
// stored part's concrete type. Order matters: a ToolResultPart never carries
// a Name, but a legacy ToolUsePart payload could in principle carry
// additional keys, so the narrower shapes are checked first.
var partShapes = []struct {
	keys   []string
	decode func(json.RawMessage) (Part, error)
}{
	{[]string{"Signature", "Redacted", "Index", "Final"}, decodeLedgerThinking},
	{[]string{"ToolUseID"}, decodeLedgerToolResult},
	{[]string{"Name"}, decodeLedgerToolUse},
	{[]string{"Text"}, decodeLedgerText},
}

func decodeLedgerPart(raw json.RawMessage) (Part, error) {
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

	for _, shape := range partShapes {
		if hasAnyKey(obj, shape.keys...) {
			return shape.decode(raw)
		}
	}
	return nil, errors.New("unknown part shape")
}

func decodeLedgerThinking(raw json.RawMessage) (Part, error) {
	var thinking ThinkingPart
	if err := json.Unmarshal(raw, &thinking); err != nil {
		return nil, fmt.Errorf("decode ThinkingPart: %w", err)
	}
	return thinking, nil
}

func decodeLedgerToolResult(raw json.RawMessage) (Part, error) {
	var result ToolResultPart
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode ToolResultPart: %w", err)
	}
	if result.ToolUseID == "" {
		return nil, errors.New("ToolResultPart requires ToolUseID")
	}
	return result, nil
}

func decodeLedgerToolUse(raw json.RawMessage) (Part, error) {
	var use ToolUsePart
	if err := json.Unmarshal(raw, &use); err != nil {
		return nil, fmt.Errorf("decode ToolUsePart: %w", err)
	}
	if use.Name == "" {
		return nil, errors.New("ToolUsePart requires Name")
	}
	return use, nil
}

func decodeLedgerText(raw json.RawMessage) (Part, error) {
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
