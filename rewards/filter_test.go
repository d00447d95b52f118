package rewards_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/customer-rewards/rewards"
)

func clockIn(year int) rewards.Clock {
	return rewards.FixedClock(time.Date(year, time.July, 4, 15, 0, 0, 0, time.UTC))
}

// =============================================================================
// RESOLVE - four modes
// =============================================================================

func TestResolve_Modes(t *testing.T) {
	r := rewards.NewFilterResolver(clockIn(2026))
	march := rewards.DateRange{
		Start: rewards.Date(2026, time.March, 1),
		End:   rewards.Date(2026, time.March, 31),
	}

	tests := []struct {
		name  string
		query rewards.Query
		want  rewards.Selection
	}{
		{"neither", rewards.Query{}, rewards.Selection{Kind: rewards.SelectAll}},
		{"customer only", rewards.Query{}.ForCustomer(3),
			rewards.Selection{Kind: rewards.SelectByCustomer, CustomerID: 3}},
		{"month only", rewards.Query{}.ForMonth("March"),
			rewards.Selection{Kind: rewards.SelectByRange, Range: march}},
		{"both", rewards.Query{}.ForCustomer(3).ForMonth("march"),
			rewards.Selection{Kind: rewards.SelectByCustomerAndRange, CustomerID: 3, Range: march}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_February_LeapAndNonLeap(t *testing.T) {
	// GIVEN: A month-only February query
	// WHEN: Resolving in a non-leap and a leap year
	// THEN: The range ends on the 28th or the 29th

	tests := []struct {
		year    int
		lastDay int
	}{
		{2025, 28},
		{2028, 29},
		{2100, 28},
		{2000, 29},
	}
	for _, tt := range tests {
		sel, err := rewards.NewFilterResolver(clockIn(tt.year)).Resolve(rewards.Query{}.ForMonth("February"))
		require.NoError(t, err)
		assert.Equal(t, rewards.SelectByRange, sel.Kind)
		assert.Equal(t, rewards.Date(tt.year, time.February, 1), sel.Range.Start, "year %d", tt.year)
		assert.Equal(t, rewards.Date(tt.year, time.February, tt.lastDay), sel.Range.End, "year %d", tt.year)
	}
}

func TestResolve_UnknownMonth(t *testing.T) {
	// GIVEN: A misspelled month
	// WHEN: Resolving
	// THEN: An invalid-month error, never a default selection

	r := rewards.NewFilterResolver(clockIn(2026))
	for _, q := range []rewards.Query{
		rewards.Query{}.ForMonth("Jani"),
		rewards.Query{}.ForCustomer(1).ForMonth("Jani"),
		rewards.Query{}.ForMonth(""),
	} {
		sel, err := r.Resolve(q)
		require.Error(t, err)
		assert.ErrorIs(t, err, rewards.ErrInvalidMonth)

		var monthErr *rewards.InvalidMonthError
		require.ErrorAs(t, err, &monthErr)
		assert.Equal(t, *q.Month, monthErr.Month)
		assert.Equal(t, rewards.Selection{}, sel)
	}
}

func TestResolve_UsesClockYear(t *testing.T) {
	year := 2030
	clock := func() time.Time { return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC) }
	r := rewards.NewFilterResolver(clock)

	sel, err := r.Resolve(rewards.Query{}.ForMonth("December"))
	require.NoError(t, err)
	assert.Equal(t, rewards.Date(2030, time.December, 31), sel.Range.End)

	year = 2031
	sel, err = r.Resolve(rewards.Query{}.ForMonth("December"))
	require.NoError(t, err)
	assert.Equal(t, 2031, sel.Range.Start.Year())
}

// =============================================================================
// MONTH HELPERS
// =============================================================================

func TestParseMonth(t *testing.T) {
	for _, name := range []string{"january", "JANUARY", "January", "jAnUaRy"} {
		m, err := rewards.ParseMonth(name)
		require.NoError(t, err)
		assert.Equal(t, time.January, m)
	}
	for _, name := range []string{"Jan", "1", "Januar", " January"} {
		assert.False(t, rewards.IsValidMonth(name), name)
	}
}

func TestMonthRange_AllMonths(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		rng, err := rewards.MonthRange(m.String(), 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, rng.Start.Day())
		assert.Equal(t, m, rng.End.Month())
		assert.Equal(t, 1, rng.End.AddDate(0, 0, 1).Day(), "%s ends before the last day", m)
	}
}

func TestDateRange_Contains(t *testing.T) {
	rng, err := rewards.MonthRange("April", 2026)
	require.NoError(t, err)

	assert.True(t, rng.Contains(rewards.Date(2026, time.April, 1)))
	assert.True(t, rng.Contains(time.Date(2026, time.April, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(rewards.Date(2026, time.March, 31)))
	assert.False(t, rng.Contains(rewards.Date(2026, time.May, 1)))
	assert.False(t, rng.Contains(rewards.Date(2025, time.April, 15)))
	assert.Equal(t, "[2026-04-01, 2026-04-30]", rng.String())
}
