package db

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/privacy-lens/internal/types"
)

// encodeSite serialises the JSON columns. A nil summary is stored as NULL.
func encodeSite(site *types.Site) (trackers, summary []byte, err error) {
	if site == nil {
		return nil, nil, fmt.Errorf("site is nil")
	}
	list := site.Trackers
	if list == nil {
		list = []string{}
	}
	trackers, err = json.Marshal(list)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal trackers: %w", err)
	}
	if site.AISummary != nil {
		summary, err = json.Marshal(site.AISummary)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal summary: %w", err)
		}
	}
	return trackers, summary, nil
}

func decodeSite(site *types.Site, trackers, summary []byte) error {
	site.Trackers = []string{}
	if len(trackers) > 0 {
		if err := json.Unmarshal(trackers, &site.Trackers); err != nil {
			return fmt.Errorf("failed to unmarshal trackers: %w", err)
		}
	}
	if len(summary) > 0 && string(summary) != "null" {
		var s types.AISummary
		if err := json.Unmarshal(summary, &s); err != nil {
			return fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		site.AISummary = &s
	}
	return nil
}
