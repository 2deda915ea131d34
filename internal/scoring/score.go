// Package scoring computes the privacy score, letter grade and category
// band for an analyzed site.
package scoring

import (
	"net/url"
	"strings"

	"github.com/jonathan/privacy-lens/internal/types"
)

const (
	minScore = 0
	maxScore = 100
)

// Input is everything the model looks at.
type Input struct {
	URL        string
	PolicyText string
	Trackers   []string
	Summary    *types.AISummary
}

// Breakdown records each component's contribution before clamping.
type Breakdown struct {
	TrackerPoints  int `json:"trackerPoints"`
	SchemePoints   int `json:"schemePoints"`
	PolicyPoints   int `json:"policyPoints"`
	SummaryPoints  int `json:"summaryPoints"`
	CompanyPenalty int `json:"companyPenalty"`
	Raw            int `json:"raw"`
}

// Result is a scored outcome.
type Result struct {
	Score     int       `json:"score"`
	Grade     string    `json:"grade"`
	Category  string    `json:"category"`
	Profile   string    `json:"profile"`
	Breakdown Breakdown `json:"breakdown"`
}

// Compute applies profile p to in. Components are additive, so the result
// does not depend on evaluation order; the total is clamped to [0,100].
func Compute(p Profile, in Input) Result {
	var b Breakdown

	b.TrackerPoints = tierPoints(p.TrackerTiers, p.TrackerOverflowPoints, len(in.Trackers))

	if isSecure(in.URL) {
		b.SchemePoints = p.SecureSchemeBonus
	}

	b.PolicyPoints = policyPoints(p, in.PolicyText)

	if in.Summary != nil && in.Summary.Success {
		b.SummaryPoints = tierPoints(p.RiskTiers, p.RiskOverflowPoints, len(in.Summary.Summary.KeyRisks))
		b.CompanyPenalty = companyPenalty(p, in.Summary.Summary.WhoTheyShareWith)
	}

	b.Raw = b.TrackerPoints + b.SchemePoints + b.PolicyPoints + b.SummaryPoints - b.CompanyPenalty
	score := clamp(b.Raw)

	return Result{
		Score:     score,
		Grade:     Grade(score),
		Category:  Category(score),
		Profile:   p.Name,
		Breakdown: b,
	}
}

// Score computes the persisted score with the server profile.
func Score(siteURL, policyText string, trackers []string, summary *types.AISummary) int {
	return Compute(ServerProfile(), Input{
		URL:        siteURL,
		PolicyText: policyText,
		Trackers:   trackers,
		Summary:    summary,
	}).Score
}

func policyPoints(p Profile, policyText string) int {
	if policyText == "" {
		return 0
	}
	text := strings.ToLower(policyText)

	points := 0
	for _, kw := range distinct(p.PositiveKeywords) {
		if strings.Contains(text, kw) {
			points += p.PositiveWeight
		}
	}
	for _, kw := range distinct(p.NegativeKeywords) {
		if strings.Contains(text, kw) {
			points -= p.NegativeWeight
		}
	}
	return points
}

func companyPenalty(p Profile, shareWith []string) int {
	penalty := 0
	for _, company := range distinct(p.HighRiskCompanies) {
		needle := strings.ToLower(company)
		for _, recipient := range shareWith {
			if strings.Contains(strings.ToLower(recipient), needle) {
				penalty += p.CompanyPenalty
				break
			}
		}
	}
	if p.CompanyPenaltyCap > 0 && penalty > p.CompanyPenaltyCap {
		penalty = p.CompanyPenaltyCap
	}
	return penalty
}

func isSecure(siteURL string) bool {
	u, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https")
}

func distinct(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
