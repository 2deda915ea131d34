package summary

import (
	"regexp"
	"strings"

	"github.com/jonathan/privacy-lens/internal/types"
)

// Word budgets for the projections.
const (
	PopupWordBudget = 40
	FullWordBudget  = 70
)

// projectionCaps bounds the list lengths of a projection.
type projectionCaps struct {
	words     int
	collect   int
	shareWith int
	risks     int
	breakdown int
}

var (
	popupCaps = projectionCaps{words: PopupWordBudget, collect: 3, shareWith: 3, risks: 3, breakdown: 3}
	fullCaps  = projectionCaps{words: FullWordBudget, collect: 5, shareWith: 6, risks: 4, breakdown: 4}
)

// sentenceEnd matches terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// Truncate shortens text to at most maxWords words. Whole sentences are kept
// greedily while they fit; when no sentence boundary exists, or the first
// sentence alone is over budget, the text is cut at maxWords with "...".
// Truncate is idempotent.
func Truncate(text string, maxWords int) string {
	text = strings.TrimSpace(text)
	if maxWords <= 0 {
		return ""
	}
	if len(strings.Fields(text)) <= maxWords {
		return text
	}

	var kept []string
	used := 0
	for _, sentence := range splitSentences(text) {
		n := len(strings.Fields(sentence))
		if used+n > maxWords {
			break
		}
		kept = append(kept, sentence)
		used += n
	}
	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}

	words := strings.Fields(text)
	return strings.Join(words[:maxWords], " ") + "..."
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// keep the punctuation, drop the whitespace
		end := loc[0] + len(strings.TrimRight(text[loc[0]:loc[1]], " \t\r\n"))
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func project(s types.PrivacySummary, caps projectionCaps) *types.SummaryProjection {
	return &types.SummaryProjection{
		WhatTheyCollect:  truncateList(s.WhatTheyCollect, caps.collect, caps.words),
		WhoTheyShareWith: truncateList(s.WhoTheyShareWith, caps.shareWith, caps.words),
		HowLongTheyKeep:  Truncate(s.HowLongTheyKeep, caps.words),
		KeyRisks:         truncateList(s.KeyRisks, caps.risks, caps.words),
		TrackerBreakdown: truncateList(s.TrackerBreakdown, caps.breakdown, caps.words),
	}
}

func truncateList(items []string, limit, words int) []string {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, Truncate(item, words))
	}
	return out
}
