package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/runtime/runtime/agent/model"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
)

// SessionResolver yields the model.Client a Generate/GenerateText invocation
// should use. A Generate stage is constructed with exactly one of the three
// resolution modes of §4.2: DirectSession, a SessionRelay's Resolve method, or
// ContextSession.
type SessionResolver func(ctx context.Context) (model.Client, error)

// DirectSession resolves to client unconditionally, regardless of ctx.
func DirectSession(client model.Client) SessionResolver {
	return func(context.Context) (model.Client, error) { return client, nil }
}

// SessionRelay is a shared, mutable reference to a model.Client. Build a
// pipeline around a relay's Resolve method when the underlying client may be
// swapped between turns (credential rotation, failover) without
// reconstructing the pipeline itself.
type SessionRelay struct {
	mu     sync.Mutex
	client model.Client
}

// NewSessionRelay constructs a relay holding client, which may be nil.
func NewSessionRelay(client model.Client) *SessionRelay {
	return &SessionRelay{client: client}
}

// Set swaps the client the relay resolves to.
func (r *SessionRelay) Set(client model.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = client
}

// Resolve implements SessionResolver.
func (r *SessionRelay) Resolve(context.Context) (model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil, errors.New("pipeline: session relay has no client set")
	}
	return r.client, nil
}

// ContextSession resolves the model.Client bound into ctx by
// model.WithClient, the third resolution mode of §4.2.
func ContextSession(ctx context.Context) (model.Client, error) {
	client, ok := model.ClientFromContext(ctx)
	if !ok {
		return nil, errors.New("pipeline: no model.Client bound in context")
	}
	return client, nil
}

// Decoder attempts to decode raw accumulated text into O, reporting ok=false
// while raw is not yet a complete, decodable instance.
type Decoder[O any] func(raw string) (O, bool)

// JSONDecoder decodes raw as JSON into O, used by Generate when no Decode is
// supplied.
func JSONDecoder[O any]() Decoder[O] {
	return func(raw string) (O, bool) {
		var out O
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return out, false
		}
		return out, true
	}
}

// Snapshot is delivered to a StreamObserver for every chunk received during a
// streaming Generate/GenerateText invocation (§4.2, §6).
type Snapshot[O any] struct {
	// Content is the partially (or, when IsComplete, fully) generated value,
	// valid only when Decoded is true.
	Content O
	Decoded bool

	// IsComplete reports whether this is the terminal snapshot of the stream.
	IsComplete bool

	// JSONString is the raw accumulated text backing Content.
	JSONString string
}

// StreamObserver receives stream snapshots in stream order, on the caller's
// task. Observers must not perform unbounded blocking work (§4.2).
type StreamObserver[O any] func(Snapshot[O])

// Generate is the terminal LLM-invocation stage of §4.2: it resolves a model
// session, builds a prompt from the stage input, invokes the model (streaming
// or not), and decodes the result into O.
type Generate[I, O any] struct {
	// Resolver selects the model.Client for this invocation.
	Resolver SessionResolver

	// Prompt builds the model request from the stage input.
	Prompt func(ctx context.Context, in I) (*model.Request, error)

	// Options is applied to every Request this stage issues.
	Options model.GenerationOptions

	// Stream requests a streaming invocation when true.
	Stream bool

	// Decode parses accumulated response text into O. Defaults to
	// JSONDecoder[O]() when nil.
	Decode Decoder[O]

	// Observer, if set, receives every stream snapshot in order. Ignored when
	// Stream is false.
	Observer StreamObserver[O]

	// MaxRetries bounds additional attempts after the first, per the Generate
	// stage's own retry budget (§4.2 rule 5); only errors classified
	// retryable (decoding failures) are retried.
	MaxRetries int

	// RetryDelay is waited between attempts, if positive.
	RetryDelay time.Duration
}

// Run implements Step.
func (g Generate[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	decode := g.Decode
	if decode == nil {
		decode = JSONDecoder[O]()
	}

	for attempt := 0; ; attempt++ {
		if err := checkCancelled(ctx); err != nil {
			return zero, err
		}
		out, err := g.attempt(ctx, in, decode)
		if err == nil {
			return out, nil
		}
		var cancelErr *toolerrors.CancellationError
		if errors.As(err, &cancelErr) {
			return zero, err
		}
		var modelErr *toolerrors.ModelError
		retryable := errors.As(err, &modelErr) && modelErr.Kind.Retryable()
		if !retryable || attempt >= g.MaxRetries {
			return zero, err
		}
		if g.RetryDelay > 0 {
			timer := time.NewTimer(g.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				if cerr := checkCancelled(ctx); cerr != nil {
					return zero, cerr
				}
				return zero, ctx.Err()
			}
		}
	}
}

func (g Generate[I, O]) attempt(ctx context.Context, in I, decode Decoder[O]) (O, error) {
	var zero O
	client, err := g.Resolver(ctx)
	if err != nil {
		return zero, err
	}
	req, err := g.Prompt(ctx, in)
	if err != nil {
		return zero, err
	}
	g.Options.Apply(req)

	if g.Stream {
		req.Stream = true
		return g.runStream(ctx, client, req, decode)
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return zero, classifyModelError(err)
	}
	out, ok := decode(collectText(resp.Content))
	if !ok {
		return zero, &toolerrors.ModelError{Kind: toolerrors.ModelDecodingFailure, Detail: "response did not decode"}
	}
	return out, nil
}

func (g Generate[I, O]) runStream(ctx context.Context, client model.Client, req *model.Request, decode Decoder[O]) (O, error) {
	var zero O
	streamer, err := client.Stream(ctx, req)
	if err != nil {
		return zero, classifyModelError(err)
	}
	defer streamer.Close()

	var accumulated strings.Builder
	var last O
	haveLast := false
	for {
		if err := checkCancelled(ctx); err != nil {
			return zero, err
		}
		chunk, err := streamer.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return zero, classifyModelError(err)
		}
		if chunk.Type == model.ChunkTypeText && chunk.Message != nil {
			for _, part := range chunk.Message.Parts {
				if tp, ok := part.(model.TextPart); ok {
					accumulated.WriteString(tp.Text)
				}
			}
		}
		isComplete := chunk.Type == model.ChunkTypeStop
		text := accumulated.String()
		snapshot := Snapshot[O]{IsComplete: isComplete, JSONString: text}
		if decoded, ok := decode(text); ok {
			snapshot.Content, snapshot.Decoded = decoded, true
			last, haveLast = decoded, true
		}
		if g.Observer != nil {
			g.Observer(snapshot)
		}
	}
	if !haveLast {
		return zero, &toolerrors.ModelError{Kind: toolerrors.ModelGenerationFailed, Detail: "no content generated"}
	}
	return last, nil
}

// GenerateText is the plain-text convenience form of Generate: the decoded
// content is the accumulated assistant text itself, with no JSON decoding
// step.
type GenerateText[I any] struct {
	Resolver   SessionResolver
	Prompt     func(ctx context.Context, in I) (*model.Request, error)
	Options    model.GenerationOptions
	Stream     bool
	Observer   StreamObserver[string]
	MaxRetries int
	RetryDelay time.Duration
}

// Run implements Step.
func (g GenerateText[I]) Run(ctx context.Context, in I) (string, error) {
	gen := Generate[I, string]{
		Resolver:   g.Resolver,
		Prompt:     g.Prompt,
		Options:    g.Options,
		Stream:     g.Stream,
		Decode:     textDecoder,
		Observer:   g.Observer,
		MaxRetries: g.MaxRetries,
		RetryDelay: g.RetryDelay,
	}
	return gen.Run(ctx, in)
}

// textDecoder treats any non-empty accumulated text as a complete instance;
// plain text generation has no structural completeness to wait for.
func textDecoder(raw string) (string, bool) {
	return raw, raw != ""
}

func collectText(messages []model.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tp, ok := part.(model.TextPart); ok {
				b.WriteString(tp.Text)
			}
		}
	}
	return b.String()
}

// classifyModelError normalises an error returned by model.Client into a
// *toolerrors.ModelError so Generate's retry rule (§4.2 rule 5) and the
// orchestrator's failure-status mapping can classify it uniformly.
// CancellationError and an already-classified ModelError pass through
// unchanged.
func classifyModelError(err error) error {
	var cancelErr *toolerrors.CancellationError
	if errors.As(err, &cancelErr) {
		return err
	}
	var modelErr *toolerrors.ModelError
	if errors.As(err, &modelErr) {
		return err
	}
	if errors.Is(err, model.ErrStreamingUnsupported) {
		return &toolerrors.ModelError{Kind: toolerrors.ModelConfigurationError, Cause: err}
	}
	if errors.Is(err, model.ErrRateLimited) {
		return &toolerrors.ModelError{Kind: toolerrors.ModelRateLimited, Cause: err}
	}
	if pe, ok := model.AsProviderError(err); ok {
		kind := toolerrors.ModelNetworkError
		switch pe.Kind() {
		case model.ProviderErrorKindRateLimited:
			kind = toolerrors.ModelRateLimited
		case model.ProviderErrorKindUnavailable:
			kind = toolerrors.ModelUnavailable
		case model.ProviderErrorKindAuth, model.ProviderErrorKindInvalidRequest:
			kind = toolerrors.ModelInvalidInput
		}
		return &toolerrors.ModelError{Kind: kind, Detail: pe.Message(), Cause: err}
	}
	return &toolerrors.ModelError{Kind: toolerrors.ModelNetworkError, Cause: err}
}
