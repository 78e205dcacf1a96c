package types

// Usage is the provider-normalized usage field set consumed downstream by
// (model id, provider) lookup. Providers populate only the fields that apply
// to their capability; unreported fields stay zero.
type Usage struct {
	InputTokens     int `json:"input_tokens,omitempty"`
	OutputTokens    int `json:"output_tokens,omitempty"`
	TotalTokens     int `json:"total_tokens,omitempty"`
	CachedTokens    int `json:"cached_tokens,omitempty"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	BilledTokens    int `json:"billed_tokens,omitempty"`

	// Non-token billing dimensions.
	NumImages        int     `json:"num_images,omitempty"`
	BilledUnits      float64 `json:"billed_units,omitempty"`
	AudioSeconds     float64 `json:"audio_seconds,omitempty"`
	InputMegapixels  float64 `json:"input_mp,omitempty"`
	OutputMegapixels float64 `json:"output_mp,omitempty"`
}

// IsZero reports whether no usage field was populated.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// Merge returns a copy of u with every zero field filled from other. It is
// used to combine usage captured at submission time with usage reported by a
// later poll result: some async providers report certain fields only at
// submission. Fields present in u always win.
func (u Usage) Merge(other Usage) Usage {
	merged := u
	if merged.InputTokens == 0 {
		merged.InputTokens = other.InputTokens
	}
	if merged.OutputTokens == 0 {
		merged.OutputTokens = other.OutputTokens
	}
	if merged.TotalTokens == 0 {
		merged.TotalTokens = other.TotalTokens
	}
	if merged.CachedTokens == 0 {
		merged.CachedTokens = other.CachedTokens
	}
	if merged.ReasoningTokens == 0 {
		merged.ReasoningTokens = other.ReasoningTokens
	}
	if merged.BilledTokens == 0 {
		merged.BilledTokens = other.BilledTokens
	}
	if merged.NumImages == 0 {
		merged.NumImages = other.NumImages
	}
	if merged.BilledUnits == 0 {
		merged.BilledUnits = other.BilledUnits
	}
	if merged.AudioSeconds == 0 {
		merged.AudioSeconds = other.AudioSeconds
	}
	if merged.InputMegapixels == 0 {
		merged.InputMegapixels = other.InputMegapixels
	}
	if merged.OutputMegapixels == 0 {
		merged.OutputMegapixels = other.OutputMegapixels
	}
	return merged
}
