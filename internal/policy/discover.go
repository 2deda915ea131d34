package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/privacy-lens/internal/classify"
)

// ErrNoPolicyLink is returned by Discover when a page links to no privacy policy.
var ErrNoPolicyLink = errors.New("no privacy policy link found")

var policyKeywords = []string{"privacy", "datenschutz", "confidentialit", "privacidad", "privacidade"}

// FindLinks returns the links in htmlContent that look like privacy policies,
// best match first. Links leaving the page's registrable domain are ignored.
func FindLinks(htmlContent, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %s (must have scheme and host)", baseURL)
	}
	site := classify.RegistrableDomain(base.Hostname())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	type candidate struct {
		url  string
		rank int
	}
	seen := make(map[string]bool)
	var found []candidate

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil || href == "" {
			return
		}
		abs := base.ResolveReference(link)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if classify.RegistrableDomain(abs.Hostname()) != site {
			return
		}
		abs.Fragment = ""

		rank := linkRank(strings.ToLower(strings.TrimSpace(s.Text())), strings.ToLower(abs.Path))
		if rank == 0 || seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		found = append(found, candidate{url: abs.String(), rank: rank})
	})

	sort.SliceStable(found, func(i, j int) bool { return found[i].rank > found[j].rank })

	links := make([]string, len(found))
	for i, c := range found {
		links[i] = c.url
	}
	return links, nil
}

// linkRank scores how likely a link is to be the privacy policy. Zero means
// not a candidate.
func linkRank(text, path string) int {
	rank := 0
	if strings.Contains(text, "privacy policy") || strings.Contains(text, "privacy notice") {
		rank += 4
	}
	for _, kw := range policyKeywords {
		if strings.Contains(text, kw) {
			rank += 2
			break
		}
	}
	for _, kw := range policyKeywords {
		if strings.Contains(path, kw) {
			rank++
			break
		}
	}
	if rank > 0 && strings.Contains(text, "cookie") {
		rank--
	}
	return rank
}

// Discover loads siteURL and returns the address of its privacy policy.
func (f *Fetcher) Discover(ctx context.Context, siteURL string) (string, error) {
	res, err := f.pages.Fetch(ctx, siteURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", siteURL, err)
	}

	base := res.URL
	if base == "" {
		base = siteURL
	}
	links, err := FindLinks(res.HTML, base)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", ErrNoPolicyLink
	}
	if f.verbose {
		log.Printf("[POLICY] Discovered policy link %s on %s", links[0], siteURL)
	}
	return links[0], nil
}
