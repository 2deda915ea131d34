package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AnalysisRequest is the input to a single site analysis.
type AnalysisRequest struct {
	URL          string `json:"url" validate:"required,http_url"`
	PolicyText   string `json:"policyText,omitempty"`
	PolicyURL    string `json:"policyUrl,omitempty" validate:"omitempty,http_url"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
}

// Validate validates the AnalysisRequest using the validator.
func (r *AnalysisRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Site is the persisted analysis result for one URL.
type Site struct {
	ID           uuid.UUID  `json:"id"`
	URL          string     `json:"url"`
	Score        int        `json:"score"`
	Grade        string     `json:"grade"`
	Category     string     `json:"category"`
	Trackers     []string   `json:"trackers"`
	PolicyText   string     `json:"policyText,omitempty"`
	AISummary    *AISummary `json:"aiSummary,omitempty"`
	LastAnalyzed time.Time  `json:"lastAnalyzed"`
}

// SummarySucceeded reports whether the stored AI summary came from the
// text-generation service.
func (s *Site) SummarySucceeded() bool {
	return s != nil && s.AISummary != nil && s.AISummary.Success
}

// Clone returns a deep copy of the site.
func (s *Site) Clone() *Site {
	if s == nil {
		return nil
	}
	out := *s
	out.Trackers = cloneStrings(s.Trackers)
	out.AISummary = s.AISummary.Clone()
	return &out
}
