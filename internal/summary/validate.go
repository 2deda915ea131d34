package summary

import (
	"strings"

	"github.com/jonathan/privacy-lens/internal/types"
)

// NotAvailable replaces summary fields that are missing or malformed.
const NotAvailable = "Information not available"

// Caps on the validated summary lists.
const (
	MaxCollect   = 8
	MaxShareWith = 10
	MaxRisks     = 6
	MaxBreakdown = 5
)

// sanitize converts a decoded JSON object into a PrivacySummary. List fields
// that are not arrays become a single sentinel item; a non-string or blank
// retention field becomes the sentinel.
func sanitize(raw map[string]any) types.PrivacySummary {
	return types.PrivacySummary{
		WhatTheyCollect:  stringList(raw["whatTheyCollect"], MaxCollect),
		WhoTheyShareWith: stringList(raw["whoTheyShareWith"], MaxShareWith),
		HowLongTheyKeep:  stringField(raw["howLongTheyKeep"]),
		KeyRisks:         stringList(raw["keyRisks"], MaxRisks),
		TrackerBreakdown: stringList(raw["trackerBreakdown"], MaxBreakdown),
	}
}

// clampSummary applies the same caps to an already typed summary.
func clampSummary(s types.PrivacySummary) types.PrivacySummary {
	return types.PrivacySummary{
		WhatTheyCollect:  clampList(s.WhatTheyCollect, MaxCollect),
		WhoTheyShareWith: clampList(s.WhoTheyShareWith, MaxShareWith),
		HowLongTheyKeep:  orNotAvailable(s.HowLongTheyKeep),
		KeyRisks:         clampList(s.KeyRisks, MaxRisks),
		TrackerBreakdown: clampList(s.TrackerBreakdown, MaxBreakdown),
	}
}

func stringList(v any, limit int) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{NotAvailable}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return clampList(out, limit)
}

func clampList(items []string, limit int) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

func stringField(v any) string {
	s, ok := v.(string)
	if !ok {
		return NotAvailable
	}
	return orNotAvailable(s)
}

func orNotAvailable(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}
