package types

// PrivacySummary holds the structured description of a site's data practices.
// PopupSummary and FullSummary are projections of the other fields and are
// never authored independently.
type PrivacySummary struct {
	WhatTheyCollect  []string           `json:"whatTheyCollect"`
	WhoTheyShareWith []string           `json:"whoTheyShareWith"`
	HowLongTheyKeep  string             `json:"howLongTheyKeep"`
	KeyRisks         []string           `json:"keyRisks"`
	TrackerBreakdown []string           `json:"trackerBreakdown"`
	PopupSummary     *SummaryProjection `json:"popupSummary,omitempty"`
	FullSummary      *SummaryProjection `json:"fullSummary,omitempty"`
}

// SummaryProjection is a length-capped view of a PrivacySummary.
type SummaryProjection struct {
	WhatTheyCollect  []string `json:"whatTheyCollect"`
	WhoTheyShareWith []string `json:"whoTheyShareWith"`
	HowLongTheyKeep  string   `json:"howLongTheyKeep"`
	KeyRisks         []string `json:"keyRisks"`
	TrackerBreakdown []string `json:"trackerBreakdown"`
}

// AISummary is the envelope produced by the summary synthesizer.
// Success is true only when the summary came from the text-generation
// service and passed validation; the fields are always populated.
type AISummary struct {
	Success        bool                    `json:"success"`
	Summary        PrivacySummary          `json:"summary"`
	TrackerCount   int                     `json:"trackerCount"`
	TrackerDetails []TrackerClassification `json:"trackerDetails"`
	Note           string                  `json:"note,omitempty"`
}

// Clone returns a deep copy so cached envelopes are never shared mutably.
func (s *AISummary) Clone() *AISummary {
	if s == nil {
		return nil
	}
	out := *s
	out.Summary = s.Summary.clone()
	if s.TrackerDetails != nil {
		out.TrackerDetails = make([]TrackerClassification, len(s.TrackerDetails))
		copy(out.TrackerDetails, s.TrackerDetails)
	}
	return &out
}

func (p PrivacySummary) clone() PrivacySummary {
	out := p
	out.WhatTheyCollect = cloneStrings(p.WhatTheyCollect)
	out.WhoTheyShareWith = cloneStrings(p.WhoTheyShareWith)
	out.KeyRisks = cloneStrings(p.KeyRisks)
	out.TrackerBreakdown = cloneStrings(p.TrackerBreakdown)
	if p.PopupSummary != nil {
		pp := p.PopupSummary.clone()
		out.PopupSummary = &pp
	}
	if p.FullSummary != nil {
		fp := p.FullSummary.clone()
		out.FullSummary = &fp
	}
	return out
}

func (p SummaryProjection) clone() SummaryProjection {
	out := p
	out.WhatTheyCollect = cloneStrings(p.WhatTheyCollect)
	out.WhoTheyShareWith = cloneStrings(p.WhoTheyShareWith)
	out.KeyRisks = cloneStrings(p.KeyRisks)
	out.TrackerBreakdown = cloneStrings(p.TrackerBreakdown)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
