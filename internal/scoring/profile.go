package scoring

// Tier awards Points when a count is at most MaxCount. Tier lists are
// ordered by ascending MaxCount.
type Tier struct {
	MaxCount int
	Points   int
}

// Profile holds every constant of the scoring model. Deployments differ in
// tuning by swapping profiles; the control flow in Compute is shared.
type Profile struct {
	Name string

	// TrackerTiers is evaluated against the tracker count; counts above the
	// last tier earn TrackerOverflowPoints.
	TrackerTiers          []Tier
	TrackerOverflowPoints int

	SecureSchemeBonus int

	// Each distinct keyword present in the policy text adds PositiveWeight
	// or subtracts NegativeWeight.
	PositiveKeywords []string
	PositiveWeight   int
	NegativeKeywords []string
	NegativeWeight   int

	// RiskTiers apply to the key-risk count of a successful summary.
	RiskTiers          []Tier
	RiskOverflowPoints int

	// Each distinct high-risk company named among the summary's data
	// recipients costs CompanyPenalty, up to CompanyPenaltyCap in total.
	HighRiskCompanies []string
	CompanyPenalty    int
	CompanyPenaltyCap int
}

var (
	positiveKeywords = []string{
		"encrypted", "no data sharing", "gdpr", "privacy focused",
		"user control", "opt-out", "delete data", "minimal collection",
	}
	negativeKeywords = []string{
		"sell data", "third party", "advertisers", "share data",
		"indefinitely", "partners", "affiliates", "marketing",
	}
	highRiskCompanies = []string{"Meta", "Google", "Amazon"}
)

// ServerProfile is the model used for the persisted score.
func ServerProfile() Profile {
	return Profile{
		Name: "server",
		TrackerTiers: []Tier{
			{MaxCount: 0, Points: 40},
			{MaxCount: 2, Points: 35},
			{MaxCount: 5, Points: 25},
			{MaxCount: 10, Points: 15},
			{MaxCount: 15, Points: 5},
		},
		TrackerOverflowPoints: 0,
		SecureSchemeBonus:     10,
		PositiveKeywords:      positiveKeywords,
		PositiveWeight:        4,
		NegativeKeywords:      negativeKeywords,
		NegativeWeight:        3,
		RiskTiers: []Tier{
			{MaxCount: 2, Points: 15},
			{MaxCount: 4, Points: 10},
		},
		RiskOverflowPoints: 5,
		HighRiskCompanies:  highRiskCompanies,
		CompanyPenalty:     3,
		CompanyPenaltyCap:  15,
	}
}

// WhatIfProfile is the lenient model used when recomputing a score after a
// user hypothetically blocks tracker categories.
func WhatIfProfile() Profile {
	return Profile{
		Name: "what-if",
		TrackerTiers: []Tier{
			{MaxCount: 0, Points: 45},
			{MaxCount: 3, Points: 40},
			{MaxCount: 6, Points: 30},
			{MaxCount: 12, Points: 20},
			{MaxCount: 20, Points: 10},
		},
		TrackerOverflowPoints: 0,
		SecureSchemeBonus:     10,
		PositiveKeywords:      positiveKeywords,
		PositiveWeight:        5,
		NegativeKeywords:      negativeKeywords,
		NegativeWeight:        2,
		RiskTiers: []Tier{
			{MaxCount: 2, Points: 15},
			{MaxCount: 4, Points: 12},
		},
		RiskOverflowPoints: 8,
		HighRiskCompanies:  highRiskCompanies,
		CompanyPenalty:     2,
		CompanyPenaltyCap:  10,
	}
}

func tierPoints(tiers []Tier, overflow, count int) int {
	for _, t := range tiers {
		if count <= t.MaxCount {
			return t.Points
		}
	}
	return overflow
}
