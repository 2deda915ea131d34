// Package classify attributes tracker hostnames to products, categories and
// companies using an ordered table of hostname rules.
package classify

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/jonathan/privacy-lens/internal/types"
)

const (
	// NameGenericTracker is the name given to unattributed tracking hosts.
	NameGenericTracker = "Tracker"
	// NameFirstParty is the name given to hosts on the site's own domain.
	NameFirstParty = "First-Party"
	// CompanyUnknown is used when no company can be attributed.
	CompanyUnknown = "Unknown"
)

// Classify maps a hostname to its classification. It accepts any string and
// never fails: unmatched input resolves to the Unknown category.
func Classify(hostname string) types.TrackerClassification {
	host := normalizeHost(hostname)

	for _, r := range defaultRules {
		if r.Pattern.MatchString(host) {
			return types.TrackerClassification{
				Domain:   host,
				Name:     r.Name,
				Category: r.Category,
				Company:  r.Company,
			}
		}
	}

	if genericTracker.MatchString(host) {
		return types.TrackerClassification{
			Domain:   host,
			Name:     NameGenericTracker,
			Category: types.CategoryAnalytics,
			Company:  CompanyUnknown,
		}
	}

	return types.TrackerClassification{
		Domain:   host,
		Name:     host,
		Category: types.CategoryUnknown,
		Company:  CompanyUnknown,
	}
}

// ClassifyForSite classifies hostname relative to the site it was observed
// on. Hosts under the site's own registrable domain are first-party and are
// never attributed to a third-party vendor.
func ClassifyForSite(hostname, siteDomain string) types.TrackerClassification {
	host := normalizeHost(hostname)
	site := RegistrableDomain(siteDomain)

	if site != "" && RegistrableDomain(host) == site {
		return types.TrackerClassification{
			Domain:   host,
			Name:     NameFirstParty,
			Category: types.CategoryAnalytics,
			Company:  site,
		}
	}

	return Classify(host)
}

// ClassifyAll classifies each hostname, preserving input order.
func ClassifyAll(hostnames []string) []types.TrackerClassification {
	return ClassifyAllForSite(hostnames, "")
}

// ClassifyAllForSite is ClassifyAll with hosts on site's registrable domain
// reported as first-party. site may be a hostname or a URL.
func ClassifyAllForSite(hostnames []string, site string) []types.TrackerClassification {
	out := make([]types.TrackerClassification, 0, len(hostnames))
	for _, h := range hostnames {
		out = append(out, ClassifyForSite(h, site))
	}
	return out
}

// RegistrableDomain returns the effective TLD+1 of host ("cdn.example.co.uk"
// -> "example.co.uk"). Input that has no registrable part (IP addresses,
// bare suffixes, garbage) is returned normalised but otherwise unchanged.
func RegistrableDomain(host string) string {
	host = normalizeHost(host)
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// normalizeHost lower-cases and trims its input, reducing a full URL to its
// hostname and dropping any port or trailing dot.
func normalizeHost(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			host = u.Hostname()
		}
	} else if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
