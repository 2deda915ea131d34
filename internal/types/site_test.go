//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request AnalysisRequest
		wantErr bool
	}{
		{
			name:    "valid https url",
			request: AnalysisRequest{URL: "https://example.com"},
		},
		{
			name:    "valid http url with policy url",
			request: AnalysisRequest{URL: "http://example.com/page", PolicyURL: "https://example.com/privacy"},
		},
		{
			name:    "missing url",
			request: AnalysisRequest{},
			wantErr: true,
		},
		{
			name:    "relative url",
			request: AnalysisRequest{URL: "example.com"},
			wantErr: true,
		},
		{
			name:    "bad policy url",
			request: AnalysisRequest{URL: "https://example.com", PolicyURL: "not a url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalysisRequest_JSONFieldNames(t *testing.T) {
	var req AnalysisRequest
	err := json.Unmarshal([]byte(`{"url":"https://a.com","policyText":"gdpr","forceRefresh":true}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com", req.URL)
	assert.Equal(t, "gdpr", req.PolicyText)
	assert.True(t, req.ForceRefresh)
}

func TestSite_SummarySucceeded(t *testing.T) {
	var nilSite *Site
	assert.False(t, nilSite.SummarySucceeded())
	assert.False(t, (&Site{}).SummarySucceeded())
	assert.False(t, (&Site{AISummary: &AISummary{Success: false}}).SummarySucceeded())
	assert.True(t, (&Site{AISummary: &AISummary{Success: true}, LastAnalyzed: time.Now()}).SummarySucceeded())
}

func TestAISummary_CloneIsDeep(t *testing.T) {
	orig := &AISummary{
		Success: true,
		Summary: PrivacySummary{
			WhatTheyCollect: []string{"a"},
			PopupSummary:    &SummaryProjection{KeyRisks: []string{"r"}},
		},
		TrackerDetails: []TrackerClassification{{Domain: "x.com"}},
	}

	cp := orig.Clone()
	cp.Summary.WhatTheyCollect[0] = "changed"
	cp.Summary.PopupSummary.KeyRisks[0] = "changed"
	cp.TrackerDetails[0].Domain = "changed"

	assert.Equal(t, "a", orig.Summary.WhatTheyCollect[0])
	assert.Equal(t, "r", orig.Summary.PopupSummary.KeyRisks[0])
	assert.Equal(t, "x.com", orig.TrackerDetails[0].Domain)

	var nilSummary *AISummary
	assert.Nil(t, nilSummary.Clone())
}

func TestSite_ClonePreservesEmptyLists(t *testing.T) {
	orig := &Site{
		URL:      "https://example.com",
		Trackers: []string{},
		AISummary: &AISummary{
			Summary:        PrivacySummary{WhoTheyShareWith: []string{}},
			TrackerDetails: []TrackerClassification{},
		},
	}

	data, err := json.Marshal(orig.Clone())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{}, decoded["trackers"])

	ai := decoded["aiSummary"].(map[string]any)
	assert.Equal(t, []any{}, ai["trackerDetails"])
	assert.Equal(t, []any{}, ai["summary"].(map[string]any)["whoTheyShareWith"])
}

func TestValidTrackerCategory(t *testing.T) {
	assert.True(t, ValidTrackerCategory("Tag Manager"))
	assert.True(t, ValidTrackerCategory("CDN/Utility"))
	assert.False(t, ValidTrackerCategory("Marketing"))
	assert.Len(t, AllTrackerCategories(), 6)
}

func TestSite_CloneIsDeep(t *testing.T) {
	orig := &Site{
		URL:       "https://example.com",
		Trackers:  []string{"a.com"},
		AISummary: &AISummary{Summary: PrivacySummary{KeyRisks: []string{"r"}}},
	}
	cp := orig.Clone()
	cp.Trackers[0] = "b.com"
	cp.AISummary.Summary.KeyRisks[0] = "changed"

	assert.Equal(t, "a.com", orig.Trackers[0])
	assert.Equal(t, "r", orig.AISummary.Summary.KeyRisks[0])

	var nilSite *Site
	assert.Nil(t, nilSite.Clone())
}
