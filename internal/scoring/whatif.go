package scoring

import (
	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/types"
)

// WhatIf recomputes the score as if every tracker in a blocked category
// were removed, using the lenient what-if profile.
func WhatIf(in Input, blocked []types.TrackerCategory) Result {
	in.Trackers = RemainingTrackers(in.Trackers, blocked)
	return Compute(WhatIfProfile(), in)
}

// RemainingTrackers drops trackers whose classification falls in blocked.
func RemainingTrackers(trackers []string, blocked []types.TrackerCategory) []string {
	if len(blocked) == 0 {
		return append([]string(nil), trackers...)
	}
	skip := make(map[types.TrackerCategory]bool, len(blocked))
	for _, c := range blocked {
		skip[c] = true
	}

	out := make([]string, 0, len(trackers))
	for _, h := range trackers {
		if skip[classify.Classify(h).Category] {
			continue
		}
		out = append(out, h)
	}
	return out
}
