package types

// Provider identifies a third-party generation service; compatible with string.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderMistral    Provider = "mistral"
	ProviderCohere     Provider = "cohere"
	ProviderXAI        Provider = "xai"
	ProviderBFL        Provider = "bfl"
	ProviderElevenLabs Provider = "elevenlabs"
	ProviderMureka     Provider = "mureka"
	ProviderLuma       Provider = "luma"
	ProviderBytePlus   Provider = "byteplus"
)

// Capability is a generation modality. Each (Capability, Provider) pair is
// served by exactly one registered pipeline.
type Capability string

const (
	CapabilityTextGeneration   Capability = "text-generation"
	CapabilityImageGeneration  Capability = "image-generation"
	CapabilitySpeechGeneration Capability = "speech-generation"
	CapabilityMusicGeneration  Capability = "music-generation"
	CapabilityVideoGeneration  Capability = "video-generation"
	CapabilityEmbeddings       Capability = "embeddings"
)

// Parameter is a logical, provider-agnostic request option. Mappers translate
// a Parameter into whatever field(s) the provider's wire format uses.
type Parameter string

const (
	ParamTemperature  Parameter = "temperature"
	ParamMaxTokens    Parameter = "max_tokens"
	ParamTopP         Parameter = "top_p"
	ParamSeed         Parameter = "seed"
	ParamStop         Parameter = "stop"
	ParamOutputSchema Parameter = "output_schema"
	ParamOutputFormat Parameter = "output_format"
	ParamSystemPrompt Parameter = "system_prompt"

	// Image parameters.
	ParamAspectRatio Parameter = "aspect_ratio"
	ParamSize        Parameter = "size"
	ParamQuality     Parameter = "quality"
	ParamNumImages   Parameter = "num_images"

	// Speech / music parameters.
	ParamVoice        Parameter = "voice"
	ParamSpeed        Parameter = "speed"
	ParamAudioFormat  Parameter = "audio_format"
	ParamLyrics       Parameter = "lyrics"
	ParamReferenceID  Parameter = "reference_id"
	ParamDurationSecs Parameter = "duration_seconds"
)

// FinishReason reports why a provider stopped generating. Reason carries the
// provider's own vocabulary ("stop", "length", "content_filter", ...).
type FinishReason struct {
	Reason string `json:"reason"`
}

// Chunk is one incremental unit of a streamed response. A chunk belongs to
// exactly one stream and is immutable once produced.
//
// Content carries the delta (string for text, raw bytes for audio frames).
// Usage and FinishReason are typically only present on the final chunk.
// Metadata carries the raw provider event for callers that need it.
type Chunk struct {
	Content      any            `json:"content"`
	FinishReason *FinishReason  `json:"finish_reason,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Output is the terminal aggregate of one generate call. It exists only after
// the underlying event sequence (single response, stream or poll loop) has
// reached a terminal state.
type Output struct {
	Content      any            `json:"content"`
	Usage        Usage          `json:"usage"`
	FinishReason *FinishReason  `json:"finish_reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
