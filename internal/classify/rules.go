package classify

import (
	"regexp"

	"github.com/jonathan/privacy-lens/internal/types"
)

// Rule maps a hostname pattern to a classification. Rules are evaluated in
// order and the first match wins, so more specific patterns must precede
// broader ones from the same vendor.
type Rule struct {
	Pattern  *regexp.Regexp
	Name     string
	Category types.TrackerCategory
	Company  string
}

func rule(pattern, name string, category types.TrackerCategory, company string) Rule {
	return Rule{
		Pattern:  regexp.MustCompile(pattern),
		Name:     name,
		Category: category,
		Company:  company,
	}
}

// defaultRules is the curated precedence table.
var defaultRules = []Rule{
	// Google. doubleclick sits first: any host carrying it is ad-serving.
	rule(`doubleclick`, "DoubleClick", types.CategoryAdvertising, "Google"),
	rule(`googletagmanager\.com`, "Google Tag Manager", types.CategoryTagManager, "Google"),
	rule(`googletagservices\.com`, "Google Tag Services", types.CategoryTagManager, "Google"),
	rule(`google-analytics\.com|analytics\.google\.com`, "Google Analytics", types.CategoryAnalytics, "Google"),
	rule(`googlesyndication\.com|googleadservices\.com|adservice\.google\.`, "Google Ads", types.CategoryAdvertising, "Google"),
	rule(`youtube\.com|youtube-nocookie\.com|ytimg\.com`, "YouTube", types.CategorySocial, "Google"),
	rule(`fonts\.googleapis\.com|fonts\.gstatic\.com`, "Google Fonts", types.CategoryCDNUtility, "Google"),
	rule(`gstatic\.com|googleapis\.com`, "Google APIs", types.CategoryCDNUtility, "Google"),
	rule(`(^|\.)google\.|\.google$`, "Google Services", types.CategoryAnalytics, "Google"),

	// Meta
	rule(`connect\.facebook\.net`, "Meta Pixel", types.CategoryAdvertising, "Meta"),
	rule(`fbcdn\.net`, "Facebook CDN", types.CategoryCDNUtility, "Meta"),
	rule(`facebook\.(com|net)`, "Facebook", types.CategorySocial, "Meta"),
	rule(`instagram\.com|cdninstagram\.com`, "Instagram", types.CategorySocial, "Meta"),
	rule(`whatsapp\.(com|net)`, "WhatsApp", types.CategorySocial, "Meta"),

	// Microsoft / LinkedIn
	rule(`clarity\.ms`, "Microsoft Clarity", types.CategoryAnalytics, "Microsoft"),
	rule(`bat\.bing\.com|bing\.com`, "Microsoft Advertising", types.CategoryAdvertising, "Microsoft"),
	rule(`adnxs\.com`, "Xandr", types.CategoryAdvertising, "Microsoft"),
	rule(`snap\.licdn\.com|ads\.linkedin\.com|px\.ads\.linkedin\.com`, "LinkedIn Insight Tag", types.CategoryAdvertising, "Microsoft"),
	rule(`licdn\.com|linkedin\.com`, "LinkedIn", types.CategorySocial, "Microsoft"),

	// Other social platforms
	rule(`ads-twitter\.com|analytics\.twitter\.com`, "X Ads", types.CategoryAdvertising, "X Corp"),
	rule(`twitter\.com|twimg\.com|(^|\.)x\.com$|(^|\.)t\.co$`, "X (Twitter)", types.CategorySocial, "X Corp"),
	rule(`analytics\.tiktok\.com|tiktok\.com|tiktokcdn\.com`, "TikTok Pixel", types.CategoryAdvertising, "ByteDance"),
	rule(`pinterest\.com|pinimg\.com`, "Pinterest", types.CategorySocial, "Pinterest"),
	rule(`snapchat\.com|sc-static\.net`, "Snap Pixel", types.CategoryAdvertising, "Snap"),
	rule(`reddit\.com|redditstatic\.com`, "Reddit Pixel", types.CategoryAdvertising, "Reddit"),

	// Amazon
	rule(`amazon-adsystem\.com`, "Amazon Ads", types.CategoryAdvertising, "Amazon"),
	rule(`cloudfront\.net`, "Amazon CloudFront", types.CategoryCDNUtility, "Amazon"),

	// Ad exchanges and networks
	rule(`criteo\.(com|net)`, "Criteo", types.CategoryAdvertising, "Criteo"),
	rule(`taboola\.com`, "Taboola", types.CategoryAdvertising, "Taboola"),
	rule(`outbrain\.com`, "Outbrain", types.CategoryAdvertising, "Outbrain"),
	rule(`adsrvr\.org`, "The Trade Desk", types.CategoryAdvertising, "The Trade Desk"),
	rule(`pubmatic\.com`, "PubMatic", types.CategoryAdvertising, "PubMatic"),
	rule(`rubiconproject\.com`, "Magnite", types.CategoryAdvertising, "Magnite"),
	rule(`openx\.net`, "OpenX", types.CategoryAdvertising, "OpenX"),
	rule(`casalemedia\.com`, "Index Exchange", types.CategoryAdvertising, "Index Exchange"),
	rule(`quantserve\.com|quantcount\.com`, "Quantcast", types.CategoryAdvertising, "Quantcast"),
	rule(`(^|\.)media\.net$`, "Media.net", types.CategoryAdvertising, "Media.net"),
	rule(`smartadserver\.com`, "Smart AdServer", types.CategoryAdvertising, "Equativ"),

	// Analytics SaaS
	rule(`hotjar\.(com|io)`, "Hotjar", types.CategoryAnalytics, "Hotjar"),
	rule(`mixpanel\.com`, "Mixpanel", types.CategoryAnalytics, "Mixpanel"),
	rule(`segment\.(com|io)`, "Segment", types.CategoryAnalytics, "Twilio"),
	rule(`amplitude\.com`, "Amplitude", types.CategoryAnalytics, "Amplitude"),
	rule(`fullstory\.com`, "FullStory", types.CategoryAnalytics, "FullStory"),
	rule(`heapanalytics\.com|heap\.io`, "Heap", types.CategoryAnalytics, "Heap"),
	rule(`newrelic\.com|nr-data\.net`, "New Relic", types.CategoryAnalytics, "New Relic"),
	rule(`scorecardresearch\.com`, "Comscore", types.CategoryAnalytics, "Comscore"),
	rule(`chartbeat\.(com|net)`, "Chartbeat", types.CategoryAnalytics, "Chartbeat"),
	rule(`mouseflow\.com`, "Mouseflow", types.CategoryAnalytics, "Mouseflow"),
	rule(`crazyegg\.com`, "Crazy Egg", types.CategoryAnalytics, "Crazy Egg"),
	rule(`optimizely\.com`, "Optimizely", types.CategoryAnalytics, "Optimizely"),
	rule(`hubspot\.com|hs-analytics\.net|hs-scripts\.com`, "HubSpot", types.CategoryAnalytics, "HubSpot"),
	rule(`matomo\.(org|cloud)`, "Matomo", types.CategoryAnalytics, "Matomo"),
	rule(`yandex\.(ru|com)|mc\.yandex`, "Yandex Metrica", types.CategoryAnalytics, "Yandex"),

	// Data brokers and audience platforms
	rule(`bluekai\.com`, "Oracle BlueKai", types.CategoryAdvertising, "Oracle"),
	rule(`demdex\.net`, "Adobe Audience Manager", types.CategoryAdvertising, "Adobe"),
	rule(`omtrdc\.net|2o7\.net`, "Adobe Analytics", types.CategoryAnalytics, "Adobe"),
	rule(`krxd\.net`, "Salesforce Audience Studio", types.CategoryAdvertising, "Salesforce"),
	rule(`rlcdn\.com|liveramp\.com`, "LiveRamp", types.CategoryAdvertising, "LiveRamp"),
	rule(`exelator\.com`, "Nielsen eXelate", types.CategoryAdvertising, "Nielsen"),
	rule(`tapad\.com`, "Tapad", types.CategoryAdvertising, "Experian"),
	rule(`acxiom\.com`, "Acxiom", types.CategoryAdvertising, "Acxiom"),

	// CDN and utility services
	rule(`cloudflare\.com|cloudflareinsights\.com`, "Cloudflare", types.CategoryCDNUtility, "Cloudflare"),
	rule(`jsdelivr\.net`, "jsDelivr", types.CategoryCDNUtility, "jsDelivr"),
	rule(`unpkg\.com`, "unpkg", types.CategoryCDNUtility, "unpkg"),
	rule(`akamai(hd|zed)?\.net|akamaized\.net`, "Akamai", types.CategoryCDNUtility, "Akamai"),
	rule(`fastly\.net`, "Fastly", types.CategoryCDNUtility, "Fastly"),
}

// genericTracker matches hostnames that look like tracking endpoints but
// are not attributed to a known vendor.
var genericTracker = regexp.MustCompile(`analytics|track|collect|pixel|beacon|telemetry|metrics`)

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
