// Package types provides type definitions for structured data used throughout the privacy-lens system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// TrackerCategory is the coarse purpose attributed to a tracker hostname.
type TrackerCategory string

// Tracker categories. The set is closed; anything unmatched is CategoryUnknown.
const (
	CategoryAdvertising TrackerCategory = "Advertising"
	CategoryAnalytics   TrackerCategory = "Analytics"
	CategorySocial      TrackerCategory = "Social"
	CategoryTagManager  TrackerCategory = "Tag Manager"
	CategoryCDNUtility  TrackerCategory = "CDN/Utility"
	CategoryUnknown     TrackerCategory = "Unknown"
)

// AllTrackerCategories lists every category in display order.
func AllTrackerCategories() []TrackerCategory {
	return []TrackerCategory{
		CategoryAdvertising,
		CategoryAnalytics,
		CategorySocial,
		CategoryTagManager,
		CategoryCDNUtility,
		CategoryUnknown,
	}
}

// ValidTrackerCategory checks if a category value is one of the known categories
func ValidTrackerCategory(category string) bool {
	for _, c := range AllTrackerCategories() {
		if string(c) == category {
			return true
		}
	}
	return false
}

// TrackerClassification attributes a hostname to a named product and company.
type TrackerClassification struct {
	Domain   string          `json:"domain"`
	Name     string          `json:"name"`
	Category TrackerCategory `json:"category"`
	Company  string          `json:"company"`
}

// TrackerObservation is one outbound request seen by the browser session.
type TrackerObservation struct {
	URL          string `json:"url"`
	Hostname     string `json:"hostname"`
	ResourceType string `json:"resourceType"`
	Method       string `json:"method"`
}

// RequestRecord is the per-request log entry returned by verbose detection.
type RequestRecord struct {
	URL          string `json:"url"`
	Hostname     string `json:"hostname"`
	ResourceType string `json:"resourceType"`
	Method       string `json:"method"`
	IsTracker    bool   `json:"isTracker"`
	FirstParty   bool   `json:"firstParty"`
}

// BatchRecord is the outcome of detecting trackers on one URL of a batch.
type BatchRecord struct {
	URL              string   `json:"url"`
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
	DetectedTrackers []string `json:"detectedTrackers"`
	TrackerCount     int      `json:"trackerCount"`
}
