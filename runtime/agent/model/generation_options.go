package model

// SamplingMode selects how a provider samples from its output distribution.
type SamplingMode string

const (
	// SamplingGreedy always picks the highest-probability token.
	SamplingGreedy SamplingMode = "greedy"

	// SamplingRandom samples from the nucleus above ProbabilityThreshold.
	SamplingRandom SamplingMode = "random"
)

// Sampling configures a Generate stage's sampling strategy (§6
// GenerationOptions.sampling). Providers that do not support explicit
// sampling control may ignore it.
type Sampling struct {
	Mode SamplingMode

	// ProbabilityThreshold is the nucleus cutoff used when Mode is
	// SamplingRandom.
	ProbabilityThreshold float32
}

// GenerationOptions is the options set a Generate/GenerateText pipeline stage
// builds once and applies to every Request it issues (§6).
type GenerationOptions struct {
	// Temperature overrides Request.Temperature when non-nil.
	Temperature *float32

	// MaximumResponseTokens overrides Request.MaxTokens when positive.
	MaximumResponseTokens int

	// Sampling carries the provider-agnostic sampling strategy, if any.
	Sampling *Sampling
}

// Apply overlays the configured options onto req.
func (o GenerationOptions) Apply(req *Request) {
	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	if o.MaximumResponseTokens > 0 {
		req.MaxTokens = o.MaximumResponseTokens
	}
	req.Sampling = o.Sampling
}
