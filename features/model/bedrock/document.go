package bedrock

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"

	"goa.design/clue/log"
)

func toDocument(ctx context.Context, schema any) document.Interface {
	if schema == nil {
		return lazyDocument(map[string]any{"type": "object"})
	}
	switch v := schema.(type) {
	case document.Interface:
		return v
	case json.RawMessage:
		return rawDocument(ctx, v)
	default:
		return lazyDocument(v)
	}
}

func rawDocument(ctx context.Context, raw json.RawMessage) document.Interface {
	if len(raw) == 0 {
		return lazyDocument(map[string]any{"type": "object"})
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Error(ctx, err, log.KV{K: "component", V: "inference-engine"},
			log.KV{K: "event", V: "failed to unmarshal schema"})
		return lazyDocument(map[string]any{"type": "object"})
	}
	return lazyDocument(decoded)
}

func decodeDocument(doc document.Interface) json.RawMessage {
	if doc == nil {
		return nil
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}

func lazyDocument(v any) document.Interface {
	return document.NewLazyDocument(&v)
}

func ptrValue[T ~int32 | ~int64](ptr *T) T {
	if ptr == nil {
		return 0
	}
	return *ptr
}
