package content

// Usage is the token accounting reported by a backend for one call.
// CachedTokens counts prompt tokens served from a provider-side cache and is
// a subset of InputTokens on backends that report both.
type Usage struct {
	InputTokens  int64
	CachedTokens int64
	OutputTokens int64
}

// Total returns the combined token count.
func (u Usage) Total() int64 { return u.InputTokens + u.OutputTokens }

// Add returns the element-wise sum of two usage reports.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		CachedTokens: u.CachedTokens + o.CachedTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
	}
}

// FinishReason is the backend's normalized reason for ending generation.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
	FinishFiltered  FinishReason = "content_filter"
)
