// Package costmodel computes per-claim processing costs from insurer pricing
// parameters. All functions are pure; rounding happens only at reporting
// boundaries.
package costmodel

import (
	"math"
	"time"

	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
)

// ClaimFactors are the claim attributes the cost formula reads.
type ClaimFactors struct {
	Specialty     string
	PriorityLevel int
	TotalAmount   float64
}

// Breakdown reports each multiplier and the final cost, rounded to 2 decimals,
// plus the input factors for audit display.
type Breakdown struct {
	BaseCost            float64 `json:"base_cost"`
	SpecialtyMultiplier float64 `json:"specialty_multiplier"`
	PriorityMultiplier  float64 `json:"priority_multiplier"`
	TimeMultiplier      float64 `json:"time_multiplier"`
	ValueMultiplier     float64 `json:"value_multiplier"`
	FinalCost           float64 `json:"final_cost"`
	Factors             Factors `json:"factors"`
}

type Factors struct {
	Specialty     string  `json:"specialty"`
	PriorityLevel int     `json:"priority_level"`
	ClaimAmount   float64 `json:"claim_amount"`
	ProcessDate   string  `json:"process_date"`
	DayOfMonth    int     `json:"day_of_month"`
}

// Cost returns the processing cost of a single claim for the given insurer on
// the given process date:
//
//	base * specialty * priority * timeOfMonth * value
func Cost(ins *insurerdomain.Insurer, claim ClaimFactors, processDate time.Time) float64 {
	return ins.ProcessingCostPerClaim *
		ins.SpecialtyMultiplier(claim.Specialty) *
		PriorityMultiplier(claim.PriorityLevel) *
		TimeOfMonthMultiplier(processDate) *
		ValueMultiplier(claim.TotalAmount)
}

// CostBreakdown returns the full multiplier breakdown for transparency display.
func CostBreakdown(ins *insurerdomain.Insurer, claim ClaimFactors, processDate time.Time) Breakdown {
	base := ins.ProcessingCostPerClaim
	specialty := ins.SpecialtyMultiplier(claim.Specialty)
	priority := PriorityMultiplier(claim.PriorityLevel)
	timeOfMonth := TimeOfMonthMultiplier(processDate)
	value := ValueMultiplier(claim.TotalAmount)

	return Breakdown{
		BaseCost:            Round2(base),
		SpecialtyMultiplier: Round2(specialty),
		PriorityMultiplier:  Round2(priority),
		TimeMultiplier:      Round2(timeOfMonth),
		ValueMultiplier:     Round2(value),
		FinalCost:           Round2(base * specialty * priority * timeOfMonth * value),
		Factors: Factors{
			Specialty:     claim.Specialty,
			PriorityLevel: claim.PriorityLevel,
			ClaimAmount:   claim.TotalAmount,
			ProcessDate:   processDate.Format("2006-01-02"),
			DayOfMonth:    processDate.Day(),
		},
	}
}

// PriorityMultiplier bumps cost by 10% per priority level above 1.
// Priority 1 -> 1.0, priority 5 -> 1.4.
func PriorityMultiplier(priorityLevel int) float64 {
	return 1 + float64(priorityLevel-1)*0.1
}

// TimeOfMonthMultiplier ramps linearly from 1.2 on day 1 to 1.5 on the last
// day of the month.
func TimeOfMonthMultiplier(date time.Time) float64 {
	dayOfMonth := date.Day()
	daysInMonth := daysIn(date)

	progression := float64(dayOfMonth-1) / math.Max(1, float64(daysInMonth-1))
	return 1.2 + progression*0.3
}

// ValueMultiplier applies the tiered amount factor. Tier boundaries are
// inclusive of their lower bound.
func ValueMultiplier(claimAmount float64) float64 {
	switch {
	case claimAmount >= 25000:
		return 2.0
	case claimAmount >= 15000:
		return 1.7
	case claimAmount >= 10000:
		return 1.5
	case claimAmount >= 5000:
		return 1.3
	case claimAmount >= 1000:
		return 1.1
	default:
		return 1.0
	}
}

// Round2 rounds to 2 decimal places, the currency precision of every stored
// amount.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func daysIn(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}
