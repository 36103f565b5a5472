package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/runtime/runtime/agent/model"
)

func encodeTools(
	ctx context.Context,
	defs []*model.ToolDefinition,
	choice *model.ToolChoice,
	cacheAfterTools bool,
) (*brtypes.ToolConfiguration, map[string]string, map[string]string, error) {
	if len(defs) == 0 {
		if choice == nil {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, fmt.Errorf("bedrock: tool choice is set but no tools are defined")
	}
	toolList, canonToSan, sanToCanon, err := buildToolSpecs(ctx, defs)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(toolList) == 0 {
		if choice == nil || choice.Mode == model.ToolChoiceModeNone {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, fmt.Errorf("bedrock: tool choice is set but no tools are defined")
	}
	// Policy-driven: append a cache checkpoint after tools when requested.
	// Note: only Claude models support tool-level cache checkpoints; Nova does not.
	if cacheAfterTools {
		toolList = append(toolList, &brtypes.ToolMemberCachePoint{
			Value: brtypes.CachePointBlock{Type: brtypes.CachePointTypeDefault},
		})
	}

	cfg := brtypes.ToolConfiguration{Tools: toolList}
	if choice == nil {
		return &cfg, canonToSan, sanToCanon, nil
	}
	if err := applyToolChoice(&cfg, choice, defs, sanToCanon); err != nil {
		return nil, nil, nil, err
	}
	return &cfg, canonToSan, sanToCanon, nil
}

// buildToolSpecs translates tool definitions into Bedrock tool specs and
// returns the canonical<->sanitized name maps needed to round-trip tool_use
// blocks in both directions. encodeTools is the single source of truth for
// name sanitization.
func buildToolSpecs(ctx context.Context, defs []*model.ToolDefinition) ([]brtypes.Tool, map[string]string, map[string]string, error) {
	toolList := make([]brtypes.Tool, 0, len(defs))
	canonToSan := make(map[string]string, len(defs))
	sanToCanon := make(map[string]string, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		canonical := def.Name
		if canonical == "" {
			continue
		}
		sanitized := SanitizeToolName(canonical)
		if prev, ok := sanToCanon[sanitized]; ok && prev != canonical {
			return nil, nil, nil, fmt.Errorf(
				"bedrock: tool name %q sanitizes to %q which collides with %q",
				canonical, sanitized, prev,
			)
		}
		sanToCanon[sanitized] = canonical
		canonToSan[canonical] = sanitized
		if def.Description == "" {
			return nil, nil, nil, fmt.Errorf("bedrock: tool %q is missing description", canonical)
		}
		spec := brtypes.ToolSpecification{
			Name:        aws.String(sanitized),
			Description: aws.String(def.Description),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: toDocument(ctx, def.InputSchema)},
		}
		toolList = append(toolList, &brtypes.ToolMemberToolSpec{Value: spec})
	}
	return toolList, canonToSan, sanToCanon, nil
}

func applyToolChoice(cfg *brtypes.ToolConfiguration, choice *model.ToolChoice, defs []*model.ToolDefinition, sanToCanon map[string]string) error {
	switch choice.Mode {
	case "", model.ToolChoiceModeAuto:
		// Auto is the provider default; omit ToolChoice to preserve existing
		// behavior.
	case model.ToolChoiceModeNone:
		// Preserve tool configuration so Bedrock can interpret existing
		// tool_use and tool_result content blocks in the transcript, but do
		// not force additional tool calls. Callers rely on prompts and
		// higher-level contracts to prevent new tool invocations.
	case model.ToolChoiceModeAny:
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAny{Value: brtypes.AnyToolChoice{}}
	case model.ToolChoiceModeTool:
		return applySpecificToolChoice(cfg, choice, defs, sanToCanon)
	default:
		return fmt.Errorf("bedrock: unsupported tool choice mode %q", choice.Mode)
	}
	return nil
}

func applySpecificToolChoice(cfg *brtypes.ToolConfiguration, choice *model.ToolChoice, defs []*model.ToolDefinition, sanToCanon map[string]string) error {
	if choice.Name == "" {
		return fmt.Errorf("bedrock: tool choice mode %q requires a tool name", choice.Mode)
	}
	if !hasToolDefinition(defs, choice.Name) {
		return fmt.Errorf("bedrock: tool choice name %q does not match any tool", choice.Name)
	}
	sanitized := SanitizeToolName(choice.Name)
	if canonical, ok := sanToCanon[sanitized]; !ok || canonical != choice.Name {
		return fmt.Errorf("bedrock: tool choice name %q does not match any tool", choice.Name)
	}
	cfg.ToolChoice = &brtypes.ToolChoiceMemberTool{
		Value: brtypes.SpecificToolChoice{Name: aws.String(sanitized)},
	}
	return nil
}

func hasToolDefinition(defs []*model.ToolDefinition, name string) bool {
	for _, def := range defs {
		if def != nil && def.Name == name {
			return true
		}
	}
	return false
}

// isProviderSafeToolUseID reports whether id conforms to Bedrock's documented
// toolUseId constraints: pattern [a-zA-Z0-9_-]+ and length <= 64. The check is
// intentionally strict so internal correlation IDs (for example, run-scoped
// paths containing slashes) are never forwarded directly to the provider.
func isProviderSafeToolUseID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// isNovaModel reports whether the given model identifier refers to an Amazon
// Nova family model. Nova models do not currently support tool-level cache
// checkpoints in the tool configuration.
func isNovaModel(modelID string) bool {
	if modelID == "" {
		return false
	}
	// Bedrock Nova models are prefixed with "amazon.nova-".
	return strings.HasPrefix(modelID, "amazon.nova-")
}

// messagesHaveToolBlocks returns true if any message in the slice contains a
// ToolUsePart or ToolResultPart. Bedrock requires toolConfig to be set when
// such parts are present.
func messagesHaveToolBlocks(msgs []*model.Message) bool {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		for _, p := range m.Parts {
			switch p.(type) {
			case model.ToolUsePart, model.ToolResultPart:
				return true
			}
		}
	}
	return false
}
