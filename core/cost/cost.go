package cost

import (
	"fmt"
	"sync"

	"github.com/withceleste/celeste-go/core/types"
)

// Cost is the computed price of one generation call, in USD.
type Cost struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	Total  float64 `json:"total"`
}

// String formats the cost for log output.
func (c Cost) String() string {
	return fmt.Sprintf("$%.6f (in $%.6f, out $%.6f)", c.Total, c.Input, c.Output)
}

// Add returns the component-wise sum.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		Input:  c.Input + other.Input,
		Output: c.Output + other.Output,
		Total:  c.Total + other.Total,
	}
}

// Pricing declares how one model bills. Token rates are per single token.
// Unit-billing providers report their own spend in usage; BilledUnitRate
// converts those units to USD.
type Pricing struct {
	InputTokenRate  float64
	OutputTokenRate float64
	CachedTokenRate float64

	ImageRate       float64 // per generated image
	AudioSecondRate float64 // per second of audio
	BilledUnitRate  float64 // multiplier on provider-reported billed units
}

// Calculate prices the usage of one call under this pricing.
func (p Pricing) Calculate(usage types.Usage) Cost {
	cached := float64(usage.CachedTokens) * p.CachedTokenRate
	uncached := float64(usage.InputTokens-usage.CachedTokens) * p.InputTokenRate
	input := uncached + cached

	output := float64(usage.OutputTokens) * p.OutputTokenRate
	output += float64(usage.NumImages) * p.ImageRate
	output += usage.AudioSeconds * p.AudioSecondRate
	output += usage.BilledUnits * p.BilledUnitRate

	return Cost{Input: input, Output: output, Total: input + output}
}

type tableKey struct {
	modelID  string
	provider types.Provider
}

// Table looks up pricing per (model id, provider). It is an explicit object:
// construct one, register pricing, pass it where needed.
type Table struct {
	mu      sync.RWMutex
	pricing map[tableKey]Pricing
}

// NewTable creates an empty pricing table.
func NewTable() *Table {
	return &Table{pricing: make(map[tableKey]Pricing)}
}

// Register installs pricing for a model, replacing any previous entry.
func (t *Table) Register(modelID string, provider types.Provider, pricing Pricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pricing[tableKey{modelID: modelID, provider: provider}] = pricing
}

// Calculate prices a call's usage, reporting whether pricing was known for
// the model.
func (t *Table) Calculate(modelID string, provider types.Provider, usage types.Usage) (Cost, bool) {
	t.mu.RLock()
	pricing, ok := t.pricing[tableKey{modelID: modelID, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return Cost{}, false
	}
	return pricing.Calculate(usage), true
}

// Tracker accumulates cost across calls, for session-level budgets. It is
// safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	total Cost
	calls int
}

// NewTracker creates a zeroed Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records one call's cost.
func (t *Tracker) Add(c Cost) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = t.total.Add(c)
	t.calls++
}

// Total returns the accumulated cost and the number of recorded calls.
func (t *Tracker) Total() (Cost, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total, t.calls
}

// Reset zeroes the tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = Cost{}
	t.calls = 0
}
