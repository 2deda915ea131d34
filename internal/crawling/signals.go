package crawling

import (
	"regexp"
	"strings"
)

// knownTrackerDomains is matched as a substring of the request hostname.
var knownTrackerDomains = []string{
	"doubleclick.net",
	"google-analytics.com",
	"googletagmanager.com",
	"googlesyndication.com",
	"googleadservices.com",
	"adservice.google.com",
	"facebook.net",
	"facebook.com/tr",
	"connect.facebook.net",
	"analytics.tiktok.com",
	"ads-twitter.com",
	"analytics.twitter.com",
	"bat.bing.com",
	"clarity.ms",
	"px.ads.linkedin.com",
	"snap.licdn.com",
	"amazon-adsystem.com",
	"adnxs.com",
	"criteo.com",
	"criteo.net",
	"taboola.com",
	"outbrain.com",
	"pubmatic.com",
	"rubiconproject.com",
	"openx.net",
	"casalemedia.com",
	"adsrvr.org",
	"quantserve.com",
	"scorecardresearch.com",
	"hotjar.com",
	"mixpanel.com",
	"segment.io",
	"segment.com",
	"amplitude.com",
	"heapanalytics.com",
	"fullstory.com",
	"mouseflow.com",
	"crazyegg.com",
	"newrelic.com",
	"nr-data.net",
	"bluekai.com",
	"demdex.net",
	"omtrdc.net",
	"krxd.net",
	"exelator.com",
	"rlcdn.com",
	"pinimg.com/ct",
	"ct.pinterest.com",
	"sc-static.net",
	"redditstatic.com/ads",
}

var trackerHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|\.)ads?\.`),
	regexp.MustCompile(`(^|[.-])ads\d+\.`),
	regexp.MustCompile(`(^|\.)track(ing|er)?\.`),
	regexp.MustCompile(`(^|\.)(analytics|metrics|stats|telemetry)\.`),
	regexp.MustCompile(`(^|\.)(pixel|beacon|collect)\.`),
	regexp.MustCompile(`adserver|adsystem|adtech`),
}

var trackerURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/analytics[/.?]`),
	regexp.MustCompile(`/collect([/?]|$)`),
	regexp.MustCompile(`gtag|gtm\.js`),
	regexp.MustCompile(`fbevents`),
	regexp.MustCompile(`doubleclick`),
	regexp.MustCompile(`/pixel([/.?]|$)`),
	regexp.MustCompile(`/beacon([/.?]|$)`),
	regexp.MustCompile(`/track(ing)?([/.?]|$)`),
	regexp.MustCompile(`/pagead/`),
	regexp.MustCompile(`/b/ss/`),
}

// IsTracker reports whether a request looks like tracking traffic. Any one
// of three signals is sufficient: a curated domain list, hostname patterns
// and URL path patterns.
func IsTracker(rawURL, hostname string) bool {
	host := strings.ToLower(hostname)
	full := strings.ToLower(rawURL)

	for _, d := range knownTrackerDomains {
		if strings.Contains(host, d) || (strings.Contains(d, "/") && strings.Contains(full, d)) {
			return true
		}
	}
	for _, re := range trackerHostPatterns {
		if re.MatchString(host) {
			return true
		}
	}
	for _, re := range trackerURLPatterns {
		if re.MatchString(full) {
			return true
		}
	}
	return false
}
