// Package scoring computes startup–investor compatibility scores.
//
// A score is built from a fixed baseline plus sector, stage, and check-size
// components, then passed through a sigmoid compression above the knee so
// high raw totals asymptote toward the ceiling instead of piling up at the
// top of the range.
package scoring

import "github.com/ugobe007/hotmatch/internal/taxonomy"

// PolicyVersion identifies the current scoring policy. Persisted on every
// match row so recalibration can target rows written by older policies.
const PolicyVersion = "v5"

// Policy holds the scoring constants. DefaultPolicy is what production runs
// use; tests construct variants to probe individual components.
type Policy struct {
	Version string

	Baseline int

	// Sector component: each overlapping sector contributes
	// SectorUnit * weight, capped at SectorCap. An investor with declared
	// sectors and zero overlap takes SectorMismatch.
	SectorUnit     int
	SectorCap      int
	SectorMismatch int
	SectorWeights  map[taxonomy.Sector]float64

	// Stage component: exact or adjacent stage earns StageBonus; a declared
	// preference more than one stage away takes StageMismatch; no declared
	// preferences is neutral.
	StageBonus    int
	StageMismatch int

	// Check-size component.
	CheckFit     int // raise inside [min, max]
	CheckNear    int // within NearTolerance outside a bound
	CheckUnknown int // raise amount not known
	// NearTolerance is the fraction outside a bound still counted as near.
	NearTolerance float64

	// Compression: raw scores above Knee are squashed toward Ceiling.
	Knee    int
	Ceiling int
	Scale   float64

	// MaxScore caps the final integer score.
	MaxScore int
}

// DefaultPolicy returns the production v5 policy.
func DefaultPolicy() Policy {
	return Policy{
		Version:        PolicyVersion,
		Baseline:       15,
		SectorUnit:     8,
		SectorCap:      32,
		SectorMismatch: -5,
		SectorWeights: map[taxonomy.Sector]float64{
			taxonomy.SectorAI:       2.0,
			taxonomy.SectorSaaS:     2.0,
			taxonomy.SectorFintech:  2.0,
			taxonomy.SectorHealth:   2.0,
			taxonomy.SectorConsumer: 2.0,
			taxonomy.SectorRobotics: 2.0,
			taxonomy.SectorCrypto:   1.0,
			taxonomy.SectorClimate:  0.5,
			taxonomy.SectorGaming:   0.5,
			taxonomy.SectorEdtech:   0.5,
		},
		StageBonus:    10,
		StageMismatch: -5,
		CheckFit:      7,
		CheckNear:     4,
		CheckUnknown:  3,
		NearTolerance: 0.25,
		Knee:          55,
		Ceiling:       95,
		Scale:         12,
		MaxScore:      99,
	}
}

// sectorWeight returns the weight for a sector, defaulting to 1.0 for
// sectors without an explicit entry.
func (p Policy) sectorWeight(s taxonomy.Sector) float64 {
	if w, ok := p.SectorWeights[s]; ok {
		return w
	}

	return 1.0
}
