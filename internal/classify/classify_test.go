package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/privacy-lens/internal/types"
)

func TestClassify_KnownVendors(t *testing.T) {
	tests := []struct {
		host     string
		name     string
		category types.TrackerCategory
		company  string
	}{
		{"www.googletagmanager.com", "Google Tag Manager", types.CategoryTagManager, "Google"},
		{"www.google-analytics.com", "Google Analytics", types.CategoryAnalytics, "Google"},
		{"stats.g.doubleclick.net", "DoubleClick", types.CategoryAdvertising, "Google"},
		{"pagead2.googlesyndication.com", "Google Ads", types.CategoryAdvertising, "Google"},
		{"fonts.gstatic.com", "Google Fonts", types.CategoryCDNUtility, "Google"},
		{"www.google.com", "Google Services", types.CategoryAnalytics, "Google"},
		{"connect.facebook.net", "Meta Pixel", types.CategoryAdvertising, "Meta"},
		{"www.facebook.com", "Facebook", types.CategorySocial, "Meta"},
		{"c.clarity.ms", "Microsoft Clarity", types.CategoryAnalytics, "Microsoft"},
		{"snap.licdn.com", "LinkedIn Insight Tag", types.CategoryAdvertising, "Microsoft"},
		{"ib.adnxs.com", "Xandr", types.CategoryAdvertising, "Microsoft"},
		{"static.ads-twitter.com", "X Ads", types.CategoryAdvertising, "X Corp"},
		{"t.co", "X (Twitter)", types.CategorySocial, "X Corp"},
		{"aax.amazon-adsystem.com", "Amazon Ads", types.CategoryAdvertising, "Amazon"},
		{"static.hotjar.com", "Hotjar", types.CategoryAnalytics, "Hotjar"},
		{"tags.bluekai.com", "Oracle BlueKai", types.CategoryAdvertising, "Oracle"},
		{"cdn.jsdelivr.net", "jsDelivr", types.CategoryCDNUtility, "jsDelivr"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			c := Classify(tt.host)
			assert.Equal(t, tt.host, c.Domain)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.company, c.Company)
		})
	}
}

func TestClassify_PrecedenceSpecificBeforeBroad(t *testing.T) {
	// googletagmanager also contains "google"; the specific rule must win
	assert.Equal(t, types.CategoryTagManager, Classify("googletagmanager.com").Category)
	// fonts.googleapis.com must not fall through to the broader googleapis rule
	assert.Equal(t, "Google Fonts", Classify("fonts.googleapis.com").Name)
	assert.Equal(t, "Google APIs", Classify("maps.googleapis.com").Name)
	// connect.facebook.net precedes the generic facebook rule
	assert.Equal(t, "Meta Pixel", Classify("connect.facebook.net").Name)
}

func TestClassify_DoubleclickAlwaysGoogleAdvertising(t *testing.T) {
	hosts := []string{
		"doubleclick.net",
		"ad.doubleclick.net",
		"doubleclick.googletagmanager.com",
		"metrics-doubleclick.facebook.com",
		"DOUBLECLICK.example",
	}
	for _, h := range hosts {
		c := Classify(h)
		assert.Equal(t, types.CategoryAdvertising, c.Category, h)
		assert.Equal(t, "Google", c.Company, h)
	}
}

func TestClassify_GenericKeywordHeuristic(t *testing.T) {
	for _, h := range []string{"metrics.example.com", "collector.acme.io", "pixel.shop.net", "telemetry.app.dev"} {
		c := Classify(h)
		assert.Equal(t, NameGenericTracker, c.Name, h)
		assert.Equal(t, types.CategoryAnalytics, c.Category, h)
		assert.Equal(t, CompanyUnknown, c.Company, h)
	}
}

func TestClassify_UnknownAndTotal(t *testing.T) {
	c := Classify("cdn.example.org")
	assert.Equal(t, "cdn.example.org", c.Name)
	assert.Equal(t, types.CategoryUnknown, c.Category)
	assert.Equal(t, CompanyUnknown, c.Company)

	// Arbitrary strings never panic and always resolve.
	for _, s := range []string{"", "   ", "%%%", "::1", "[::1]:443", strings.Repeat("a", 4096), "例え.jp"} {
		assert.NotPanics(t, func() { _ = Classify(s) })
		assert.NotEmpty(t, Classify(s).Category)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, h := range []string{"www.google-analytics.com", "unknown.host", "track.me"} {
		assert.Equal(t, Classify(h), Classify(h))
	}
}

func TestClassify_NormalisesInput(t *testing.T) {
	c := Classify("  WWW.Google-Analytics.COM:443 ")
	assert.Equal(t, "www.google-analytics.com", c.Domain)
	assert.Equal(t, "Google Analytics", c.Name)
}

func TestClassifyForSite(t *testing.T) {
	c := ClassifyForSite("metrics.example.co.uk", "www.example.co.uk")
	assert.Equal(t, NameFirstParty, c.Name)
	assert.Equal(t, types.CategoryAnalytics, c.Category)
	assert.Equal(t, "example.co.uk", c.Company)

	// First-party wins even over a vendor rule.
	c = ClassifyForSite("analytics.google.com", "google.com")
	assert.Equal(t, NameFirstParty, c.Name)

	// Third-party hosts fall through to the rule table.
	c = ClassifyForSite("www.google-analytics.com", "example.com")
	assert.Equal(t, "Google Analytics", c.Name)

	// Site given as a URL.
	c = ClassifyForSite("metrics.example.com", "https://www.example.com/privacy")
	assert.Equal(t, NameFirstParty, c.Name)
	assert.Equal(t, "example.com", c.Company)

	c = ClassifyForSite("https://cdn.example.com:8443/x.js", "http://example.com")
	assert.Equal(t, NameFirstParty, c.Name)
	assert.Equal(t, "cdn.example.com", c.Domain)

	// Empty site domain never matches.
	c = ClassifyForSite("foo.bar", "")
	assert.Equal(t, types.CategoryUnknown, c.Category)
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.com", RegistrableDomain("a.b.example.com"))
	assert.Equal(t, "example.co.uk", RegistrableDomain("cdn.example.co.uk"))
	assert.Equal(t, "127.0.0.1", RegistrableDomain("127.0.0.1"))
	assert.Equal(t, "com", RegistrableDomain("com"))
	assert.Equal(t, "example.com", RegistrableDomain("https://www.example.com"))
	assert.Equal(t, "example.com", RegistrableDomain("www.example.com:8080"))
}

func TestRulesReturnsCopy(t *testing.T) {
	r := Rules()
	assert.NotEmpty(t, r)
	r[0].Name = "mutated"
	assert.Equal(t, "DoubleClick", Rules()[0].Name)
}

func TestClassifyAll_PreservesOrder(t *testing.T) {
	out := ClassifyAll([]string{"b.com", "doubleclick.net", "a.com"})
	assert.Len(t, out, 3)
	assert.Equal(t, "b.com", out[0].Domain)
	assert.Equal(t, "DoubleClick", out[1].Name)
	assert.Equal(t, "a.com", out[2].Domain)
}

func TestClassifyAllForSite(t *testing.T) {
	out := ClassifyAllForSite([]string{"metrics.example.com", "www.google-analytics.com"}, "https://www.example.com")
	require.Len(t, out, 2)
	assert.Equal(t, NameFirstParty, out[0].Name)
	assert.Equal(t, "Google Analytics", out[1].Name)
}
