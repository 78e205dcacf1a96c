package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/withceleste/celeste-go/core/types"
)

func TestPricing_TokenBilling(t *testing.T) {
	pricing := Pricing{
		InputTokenRate:  0.15 / 1e6,
		OutputTokenRate: 0.60 / 1e6,
		CachedTokenRate: 0.075 / 1e6,
	}

	c := pricing.Calculate(types.Usage{
		InputTokens:  1000,
		CachedTokens: 400,
		OutputTokens: 500,
	})

	// 600 uncached at the full rate, 400 cached at the discounted rate.
	wantInput := 600*0.15/1e6 + 400*0.075/1e6
	wantOutput := 500 * 0.60 / 1e6
	assert.InDelta(t, wantInput, c.Input, 1e-12)
	assert.InDelta(t, wantOutput, c.Output, 1e-12)
	assert.InDelta(t, wantInput+wantOutput, c.Total, 1e-12)
}

func TestPricing_MediaBilling(t *testing.T) {
	pricing := Pricing{ImageRate: 0.04, AudioSecondRate: 0.001, BilledUnitRate: 1}

	c := pricing.Calculate(types.Usage{NumImages: 2, AudioSeconds: 30, BilledUnits: 0.05})
	assert.InDelta(t, 2*0.04+30*0.001+0.05, c.Output, 1e-12)
	assert.Zero(t, c.Input)
}

func TestCost_AddAndString(t *testing.T) {
	a := Cost{Input: 0.01, Output: 0.02, Total: 0.03}
	b := Cost{Input: 0.005, Output: 0.005, Total: 0.01}

	sum := a.Add(b)
	assert.InDelta(t, 0.04, sum.Total, 1e-12)
	assert.Contains(t, sum.String(), "$0.040000")
}

func TestTable(t *testing.T) {
	table := NewTable()
	table.Register("gpt-4o-mini", types.ProviderOpenAI, Pricing{OutputTokenRate: 1e-6})

	c, ok := table.Calculate("gpt-4o-mini", types.ProviderOpenAI, types.Usage{OutputTokens: 100})
	assert.True(t, ok)
	assert.InDelta(t, 1e-4, c.Total, 1e-12)

	_, ok = table.Calculate("unknown", types.ProviderOpenAI, types.Usage{})
	assert.False(t, ok)
}

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Add(Cost{Input: 0.01, Output: 0.01, Total: 0.02})
		}()
	}
	wg.Wait()

	total, calls := tracker.Total()
	assert.Equal(t, 10, calls)
	assert.InDelta(t, 0.2, total.Total, 1e-9)

	tracker.Reset()
	total, calls = tracker.Total()
	assert.Zero(t, calls)
	assert.Zero(t, total.Total)
}
