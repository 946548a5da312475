package costmodel

import (
	"testing"
	"time"

	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func testInsurer() *insurerdomain.Insurer {
	return &insurerdomain.Insurer{
		Code:                   "BCBS",
		ProcessingCostPerClaim: 3.50,
		ProcessingCostPerBatch: 15.00,
		SpecialtyMultipliers: datatypes.NewJSONType(map[string]float64{
			"Cardiology": 1.2,
			"Surgery":    1.5,
			"Pediatrics": 0.9,
		}),
	}
}

func TestValueMultiplier_Tiers(t *testing.T) {
	cases := []struct {
		amount float64
		want   float64
	}{
		{0, 1.0},
		{999.99, 1.0},
		{1000, 1.1},
		{4999.99, 1.1},
		{5000, 1.3},
		{10000, 1.5},
		{15000, 1.7},
		{24999.99, 1.7},
		{25000, 2.0},
		{100000, 2.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValueMultiplier(tc.amount), "amount %.2f", tc.amount)
	}
}

func TestTimeOfMonthMultiplier_Bounds(t *testing.T) {
	firstOfJune := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	lastOfJune := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 1.2, TimeOfMonthMultiplier(firstOfJune), 1e-9)
	assert.InDelta(t, 1.5, TimeOfMonthMultiplier(lastOfJune), 1e-9)

	// February and 31-day months still span the full 1.2..1.5 range.
	assert.InDelta(t, 1.2, TimeOfMonthMultiplier(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 1.5, TimeOfMonthMultiplier(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 1.5, TimeOfMonthMultiplier(time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC)), 1e-9)
}

func TestTimeOfMonthMultiplier_Monotonic(t *testing.T) {
	prev := 0.0
	for day := 1; day <= 30; day++ {
		m := TimeOfMonthMultiplier(time.Date(2025, time.June, day, 0, 0, 0, 0, time.UTC))
		assert.Greater(t, m, prev, "day %d", day)
		prev = m
	}
}

func TestPriorityMultiplier(t *testing.T) {
	assert.InDelta(t, 1.0, PriorityMultiplier(1), 1e-9)
	assert.InDelta(t, 1.2, PriorityMultiplier(3), 1e-9)
	assert.InDelta(t, 1.4, PriorityMultiplier(5), 1e-9)
}

func TestCost_CombinesAllMultipliers(t *testing.T) {
	ins := testInsurer()
	claim := ClaimFactors{
		Specialty:     "Cardiology",
		PriorityLevel: 3,
		TotalAmount:   1200,
	}
	firstOfJune := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	// 3.50 * 1.2 * 1.2 * 1.2 * 1.1
	assert.InDelta(t, 6.6528, Cost(ins, claim, firstOfJune), 1e-9)
}

func TestCost_UnknownSpecialtyDefaultsToOne(t *testing.T) {
	ins := testInsurer()
	claim := ClaimFactors{
		Specialty:     "Oncology",
		PriorityLevel: 1,
		TotalAmount:   100,
	}
	firstOfJune := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	// 3.50 * 1.0 * 1.0 * 1.2 * 1.0
	assert.InDelta(t, 4.2, Cost(ins, claim, firstOfJune), 1e-9)
}

func TestCostBreakdown_RoundsAndEchoesFactors(t *testing.T) {
	ins := testInsurer()
	claim := ClaimFactors{
		Specialty:     "Surgery",
		PriorityLevel: 5,
		TotalAmount:   26000,
	}
	date := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	b := CostBreakdown(ins, claim, date)
	assert.Equal(t, 3.50, b.BaseCost)
	assert.Equal(t, 1.5, b.SpecialtyMultiplier)
	assert.Equal(t, 1.4, b.PriorityMultiplier)
	assert.Equal(t, 1.5, b.TimeMultiplier)
	assert.Equal(t, 2.0, b.ValueMultiplier)
	// 3.50 * 1.5 * 1.4 * 1.5 * 2.0 = 22.05
	assert.Equal(t, 22.05, b.FinalCost)

	assert.Equal(t, "Surgery", b.Factors.Specialty)
	assert.Equal(t, 5, b.Factors.PriorityLevel)
	assert.Equal(t, 26000.0, b.Factors.ClaimAmount)
	assert.Equal(t, "2025-06-30", b.Factors.ProcessDate)
	assert.Equal(t, 30, b.Factors.DayOfMonth)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 0.0, Round2(0.0049))
	assert.Equal(t, -1.23, Round2(-1.234))
}
