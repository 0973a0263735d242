package scoring

import (
	"math"

	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/internal/taxonomy"
)

// Scorer computes compatibility scores under a fixed policy.
// Scoring is a pure function of the two feature sets: the same inputs
// always produce the same breakdown.
type Scorer struct {
	policy Policy
}

// NewScorer creates a Scorer with the given policy.
func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Policy returns the scorer's policy.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score computes the full breakdown for one startup–investor pair.
func (s *Scorer) Score(startup models.StartupFeatures, investor models.InvestorFeatures) models.FitAnalysis {
	p := s.policy

	sector, matched := s.sectorScore(startup.Sectors, investor.Sectors)
	stage := s.stageScore(startup.Stage, investor.Stages)
	check := s.checkSizeScore(startup.RaiseAmount, investor.CheckSizeMin, investor.CheckSizeMax)

	raw := p.Baseline + sector + stage + check

	return models.FitAnalysis{
		Baseline:       p.Baseline,
		Sector:         sector,
		Stage:          stage,
		CheckSize:      check,
		Raw:            raw,
		Final:          s.compress(raw),
		MatchedSectors: matched,
	}
}

// sectorScore sums weighted bonuses over the sector overlap, capped, or
// applies the mismatch penalty when the investor declares sectors none of
// which overlap. An investor with no declared sectors is neutral.
func (s *Scorer) sectorScore(startup []taxonomy.Sector, investor []taxonomy.Sector) (int, []taxonomy.Sector) {
	p := s.policy

	if len(investor) == 0 {
		return 0, nil
	}

	declared := make(map[taxonomy.Sector]bool, len(investor))
	for _, sec := range investor {
		declared[sec] = true
	}

	var bonus float64
	var matched []taxonomy.Sector
	for _, sec := range startup {
		if !declared[sec] {
			continue
		}
		bonus += float64(p.SectorUnit) * p.sectorWeight(sec)
		matched = append(matched, sec)
	}

	if len(matched) == 0 {
		return p.SectorMismatch, nil
	}

	score := int(math.Round(bonus))
	if score > p.SectorCap {
		score = p.SectorCap
	}

	return score, matched
}

// stageScore rewards an exact or adjacent stage and penalizes a declared
// preference more than one stage away. Absence of a preference on either
// side is neutral, never penalized.
func (s *Scorer) stageScore(startupStage int, investorStages []int) int {
	if startupStage == taxonomy.StageUnknown || len(investorStages) == 0 {
		return 0
	}

	best := math.MaxInt
	for _, st := range investorStages {
		d := startupStage - st
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
		}
	}

	if best <= 1 {
		return s.policy.StageBonus
	}

	return s.policy.StageMismatch
}

// checkSizeScore scores the startup's raise against the investor's check
// range. A zero bound means that side is unbounded.
func (s *Scorer) checkSizeScore(raise, min, max int64) int {
	p := s.policy

	if raise == 0 {
		return p.CheckUnknown
	}
	if min == 0 && max == 0 {
		return p.CheckUnknown
	}

	if (min == 0 || raise >= min) && (max == 0 || raise <= max) {
		return p.CheckFit
	}

	// Near misses: within the tolerance fraction outside a bound.
	if min > 0 && raise < min {
		if float64(raise) >= float64(min)*(1-p.NearTolerance) {
			return p.CheckNear
		}
	}
	if max > 0 && raise > max {
		if float64(raise) <= float64(max)*(1+p.NearTolerance) {
			return p.CheckNear
		}
	}

	return 0
}

// compress passes raw scores through the distribution-shaping curve:
// identity up to the knee, then a sigmoid that asymptotes to the ceiling.
// The result is a non-negative integer never exceeding MaxScore.
func (s *Scorer) compress(raw int) int {
	p := s.policy

	var out float64
	if raw <= p.Knee {
		out = float64(raw)
	} else {
		x := float64(raw-p.Knee) / p.Scale
		sig := 1.0 / (1.0 + math.Exp(-x))
		out = float64(p.Knee) + float64(p.Ceiling-p.Knee)*(2*sig-1)
	}

	final := int(math.Round(out))
	if final < 0 {
		final = 0
	}
	if final > p.MaxScore {
		final = p.MaxScore
	}

	return final
}

// Confidence derives the confidence level from a final score.
func Confidence(score int) string {
	switch {
	case score >= 70:
		return models.ConfidenceHigh
	case score >= 50:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// Status derives the match status from a final score given the publish floor.
func Status(score, publishFloor int) string {
	if score >= publishFloor {
		return models.MatchStatusSuggested
	}

	return models.MatchStatusPending
}
