package summary

import (
	"fmt"
	"strings"

	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/types"
)

// vendor maps hostname substrings to a recipient name.
type vendor struct {
	name    string
	needles []string
}

// vendors is ordered; the fallback lists recipients in this order.
var vendors = []vendor{
	{"Google", []string{"google", "doubleclick", "gstatic", "youtube", "googlesyndication", "googleadservices"}},
	{"Meta", []string{"facebook", "fbcdn", "instagram", "fbsbx"}},
	{"Amazon", []string{"amazon", "a2z.com"}},
	{"Microsoft", []string{"bing.", "clarity.ms", "linkedin", "licdn"}},
	{"X (Twitter)", []string{"twitter", "twimg"}},
	{"TikTok", []string{"tiktok"}},
}

var (
	adNeedles        = []string{"doubleclick", "adservice", "adsystem", "adnxs", "criteo", "taboola", "outbrain", "pubmatic", "rubicon", "ads.", "adsrvr", "syndication"}
	analyticsNeedles = []string{"analytics", "tagmanager", "segment", "mixpanel", "hotjar", "amplitude", "heap", "clarity", "metrics", "collect"}
)

type signals struct {
	count      int
	recipients []string
	ads        bool
	analytics  bool
	meta       bool
	google     bool
	amazon     bool
}

func detect(trackers []string) signals {
	sig := signals{count: len(trackers)}
	hosts := make([]string, len(trackers))
	for i, t := range trackers {
		hosts[i] = strings.ToLower(strings.TrimSpace(t))
	}

	for _, v := range vendors {
		if anyContains(hosts, v.needles) {
			sig.recipients = append(sig.recipients, v.name)
			switch v.name {
			case "Google":
				sig.google = true
			case "Meta":
				sig.meta = true
			case "Amazon":
				sig.amazon = true
			}
		}
	}
	sig.ads = anyContains(hosts, adNeedles)
	sig.analytics = anyContains(hosts, analyticsNeedles)
	return sig
}

func anyContains(hosts, needles []string) bool {
	for _, h := range hosts {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

// Fallback builds a rule-based summary from tracker hostnames alone. It is
// deterministic and cannot fail.
func Fallback(trackers []string) types.PrivacySummary {
	sig := detect(trackers)

	if sig.count == 0 {
		return types.PrivacySummary{
			WhatTheyCollect:  []string{"No third-party tracking was detected while the page loaded."},
			WhoTheyShareWith: []string{},
			HowLongTheyKeep:  "No third-party retention applies. First-party retention is set by the site's own policy.",
			KeyRisks:         []string{"No third-party trackers were observed, so tracking risk is low."},
			TrackerBreakdown: []string{},
		}
	}

	collect := []string{
		"Pages you visit on this site",
		"Device and browser details",
		"IP address and approximate location",
	}
	if sig.ads {
		collect = append(collect, "Advertising identifiers and ad interactions", "Interests inferred from your browsing")
	}
	if sig.analytics {
		collect = append(collect, "Clicks, scrolling and time spent on pages")
	}
	if sig.meta {
		collect = append(collect, "Activity that can be linked to a social media account")
	}
	if sig.count > 5 {
		collect = append(collect, "Browsing history across other sites")
	}

	share := append([]string(nil), sig.recipients...)
	if sig.ads {
		share = append(share, "Advertising networks")
	}
	if sig.analytics {
		share = append(share, "Analytics providers")
	}
	if len(share) == 0 {
		share = append(share, "Third-party service providers")
	}

	retention := "Varies by vendor. The observed traffic does not state a retention period."
	if sig.ads || sig.analytics {
		retention = "Typically 13 to 26 months for analytics and advertising data. Exact periods depend on each vendor's policy."
	}

	var risks []string
	if sig.google && sig.ads {
		risks = append(risks, "Google can link visits to this site with activity across its advertising network.")
	} else if sig.google {
		risks = append(risks, "Google receives data about how you use this site.")
	}
	if sig.meta {
		risks = append(risks, "Meta can connect visits to a Facebook or Instagram profile.")
	}
	if sig.amazon {
		risks = append(risks, "Amazon may use visits to target shopping ads.")
	}
	if sig.ads && !sig.google {
		risks = append(risks, "Advertising networks can build an interest profile from your visits.")
	}
	if sig.count > 10 {
		risks = append(risks, fmt.Sprintf("A large number of trackers (%d) increases the chance of data reaching unknown parties.", sig.count))
	} else {
		risks = append(risks, fmt.Sprintf("%d third-party services receive data about your visit.", sig.count))
	}

	return types.PrivacySummary{
		WhatTheyCollect:  collect,
		WhoTheyShareWith: share,
		HowLongTheyKeep:  retention,
		KeyRisks:         risks,
		TrackerBreakdown: breakdown(trackers),
	}
}

// breakdown counts trackers per category in the classifier's category order.
func breakdown(trackers []string) []string {
	counts := make(map[types.TrackerCategory]int)
	for _, c := range classify.ClassifyAll(trackers) {
		counts[c.Category]++
	}

	var out []string
	for _, cat := range types.AllTrackerCategories() {
		n := counts[cat]
		if n == 0 {
			continue
		}
		noun := "trackers"
		if n == 1 {
			noun = "tracker"
		}
		out = append(out, fmt.Sprintf("%s: %d %s", cat, n, noun))
	}
	return out
}
