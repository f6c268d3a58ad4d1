package services

// Verification scoring weights. The score starts from a neutral baseline
// and moves on confirmed or contradicted claims, with per-item credits
// capped so long lists cannot swamp the core checks.
const (
	scoreBase = 50

	employmentConfirmedBonus  = 15
	employmentDeniedPenalty   = 30
	datesAccurateBonus        = 10
	datesDisputedPenalty      = 20
	titleConfirmedBonus       = 10
	titleDeniedPenalty        = 15
	rehireYesBonus            = 15
	rehireNoPenalty           = 25
	verifiedPerItem           = 5
	verifiedCap               = 15
	notVerifiedPerItem        = 8
	discrepancyPerItem        = 10
	redFlagPerItem            = 7
	positivePerItem           = 3
	positiveCap               = 10
)

var sentimentAdjustments = map[string]int{
	"very_positive": 10,
	"positive":      5,
	"neutral":       0,
	"negative":      -15,
	"very_negative": -25,
}

// CalculateVerificationScore produces a deterministic 0-100 score from a
// call analysis. Identical analyses always score identically.
func CalculateVerificationScore(a *CallAnalysis) int {
	score := scoreBase

	if a.EmploymentConfirmed != nil {
		if *a.EmploymentConfirmed {
			score += employmentConfirmedBonus
		} else {
			score -= employmentDeniedPenalty
		}
	}
	if a.DatesAccurate != nil {
		if *a.DatesAccurate {
			score += datesAccurateBonus
		} else {
			score -= datesDisputedPenalty
		}
	}
	if a.TitleConfirmed != nil {
		if *a.TitleConfirmed {
			score += titleConfirmedBonus
		} else {
			score -= titleDeniedPenalty
		}
	}
	if a.WouldRehire != nil {
		if *a.WouldRehire {
			score += rehireYesBonus
		} else {
			score -= rehireNoPenalty
		}
	}

	score += capped(len(a.AchievementsVerified)*verifiedPerItem, verifiedCap)
	score -= len(a.AchievementsNotVerified) * notVerifiedPerItem
	score -= len(a.Discrepancies) * discrepancyPerItem
	score -= len(a.RedFlags) * redFlagPerItem
	score += capped(len(a.PositiveSignals)*positivePerItem, positiveCap)

	score += sentimentAdjustments[a.OverallSentiment]

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// DeriveRedFlags merges the analysis red flags with flags implied by
// denied claims, so a denial always surfaces even when the model omitted
// it from its own red flag list.
func DeriveRedFlags(a *CallAnalysis) []string {
	flags := make([]string, 0, len(a.RedFlags)+len(a.Discrepancies)+4)
	flags = append(flags, a.RedFlags...)
	for _, d := range a.Discrepancies {
		flags = append(flags, "DISCREPANCY: "+d)
	}
	if a.EmploymentConfirmed != nil && !*a.EmploymentConfirmed {
		flags = append(flags, "Employment not confirmed by reference")
	}
	if a.DatesAccurate != nil && !*a.DatesAccurate {
		flags = append(flags, "Employment dates disputed by reference")
	}
	if a.TitleConfirmed != nil && !*a.TitleConfirmed {
		flags = append(flags, "Job title not confirmed by reference")
	}
	if a.WouldRehire != nil && !*a.WouldRehire {
		flags = append(flags, "Reference would NOT rehire candidate")
	}
	return flags
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
