// Package summary turns a site's tracker list into a privacy summary, using a
// text-generation service when one is configured and a deterministic
// rule-based summary otherwise.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/privacy-lens/internal/cache"
	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/llm"
	"github.com/jonathan/privacy-lens/internal/prompts"
	"github.com/jonathan/privacy-lens/internal/schemas"
	"github.com/jonathan/privacy-lens/internal/types"
)

// DefaultTTL is how long a summary stays memoized.
const DefaultTTL = 24 * time.Hour

// Notes attached to summaries that did not come from the service.
const (
	NoteUnavailable = "AI summarization unavailable: no API key configured. Showing a rule-based summary."
	noteParse       = "AI response could not be parsed, using rule-based summary"
	noteService     = "AI summarization failed, using rule-based summary"
	noteInternal    = "summary generation failed"
)

// Completer is the subset of llm.Client the synthesizer needs.
type Completer interface {
	GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Synthesizer produces AISummary envelopes. A nil completer means no
// credential is configured. It is safe for concurrent use.
type Synthesizer struct {
	client  Completer
	tier    llm.ModelTier
	cache   *cache.Cache[*types.AISummary]
	ttl     time.Duration
	verbose bool
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithCompleter sets the text-generation client. A nil value leaves
// summarization unavailable.
func WithCompleter(c Completer) Option {
	return func(s *Synthesizer) {
		s.client = c
	}
}

// WithTier selects the model tier used for completions.
func WithTier(tier llm.ModelTier) Option {
	return func(s *Synthesizer) {
		s.tier = tier
	}
}

// WithCache replaces the memoization cache, typically to inject a clock.
func WithCache(c *cache.Cache[*types.AISummary]) Option {
	return func(s *Synthesizer) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Synthesizer) {
		s.ttl = ttl
	}
}

// WithVerbose enables progress logging.
func WithVerbose(verbose bool) Option {
	return func(s *Synthesizer) {
		s.verbose = verbose
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		tier:  llm.TierLite,
		cache: cache.New[*types.AISummary](),
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a text-generation client is configured.
func (s *Synthesizer) Available() bool {
	return s.client != nil
}

// CacheKey is the memoization key for a site and its trackers. Tracker order
// does not affect the key.
func CacheKey(siteURL string, trackers []string) string {
	sorted := append([]string(nil), trackers...)
	sort.Strings(sorted)
	return siteURL + "|" + strings.Join(sorted, ",")
}

// Summarize returns the summary envelope for siteURL. It never returns nil
// and never panics; failures are reported through Success and Note.
func (s *Synthesizer) Summarize(ctx context.Context, trackers []string, siteURL string) (out *types.AISummary) {
	key := CacheKey(siteURL, trackers)
	if cached, ok := s.cache.Get(key); ok {
		if s.verbose {
			log.Printf("[SUMMARY] Cache hit for %s", siteURL)
		}
		return cached.Clone()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SUMMARY] Recovered from panic for %s: %v", siteURL, r)
			out = s.degraded(trackers, siteURL, fmt.Sprintf("%s: %v", noteInternal, r))
		}
	}()

	if s.client == nil {
		out = s.envelope(false, Fallback(trackers), trackers, siteURL, NoteUnavailable)
		s.cache.Set(key, out.Clone(), s.ttl)
		return out
	}

	parsed, err := s.generate(ctx, trackers, siteURL)
	if err != nil {
		if s.verbose {
			log.Printf("[SUMMARY] Falling back for %s: %v", siteURL, err)
		}
		// Failures are not memoized so a later retry reaches the service.
		return s.degraded(trackers, siteURL, err.Error())
	}

	out = s.envelope(true, parsed, trackers, siteURL, "")
	s.cache.Set(key, out.Clone(), s.ttl)
	if s.verbose {
		log.Printf("[SUMMARY] Generated summary for %s (%d trackers)", siteURL, len(trackers))
	}
	return out
}

// generate asks the service for a summary and returns the sanitized result.
func (s *Synthesizer) generate(ctx context.Context, trackers []string, siteURL string) (types.PrivacySummary, error) {
	prompt, err := BuildPrompt(siteURL, trackers)
	if err != nil {
		return types.PrivacySummary{}, fmt.Errorf("%s: %w", noteService, err)
	}

	text, err := s.client.GenerateContent(ctx, prompt, s.tier)
	if err != nil {
		return types.PrivacySummary{}, fmt.Errorf("%s: %w", noteService, err)
	}

	raw, err := ParseResponse(text)
	if err != nil {
		return types.PrivacySummary{}, fmt.Errorf("%s: %w", noteParse, err)
	}
	return sanitize(raw), nil
}

// BuildPrompt renders the summary prompt for a site.
func BuildPrompt(siteURL string, trackers []string) (string, error) {
	list := "(none)"
	if len(trackers) > 0 {
		lines := make([]string, len(trackers))
		for i, t := range trackers {
			lines[i] = "- " + t
		}
		list = strings.Join(lines, "\n")
	}
	return prompts.Render("summary.json", "privacy-summary", map[string]string{
		"URL":          siteURL,
		"Trackers":     list,
		"TrackerCount": strconv.Itoa(len(trackers)),
	})
}

// ParseResponse extracts the first JSON object from a model response and
// checks it against the privacy summary schema.
func ParseResponse(text string) (map[string]any, error) {
	obj := llm.ExtractJSONObject(llm.CleanJSONBlock(text))
	if obj == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if err := schemas.ValidatePrivacySummary(obj); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return raw, nil
}

func (s *Synthesizer) degraded(trackers []string, siteURL, note string) *types.AISummary {
	return s.envelope(false, Fallback(trackers), trackers, siteURL, note)
}

func (s *Synthesizer) envelope(success bool, summary types.PrivacySummary, trackers []string, siteURL, note string) *types.AISummary {
	summary = clampSummary(summary)
	summary.PopupSummary = project(summary, popupCaps)
	summary.FullSummary = project(summary, fullCaps)

	return &types.AISummary{
		Success:        success,
		Summary:        summary,
		TrackerCount:   len(trackers),
		TrackerDetails: classify.ClassifyAllForSite(trackers, siteURL),
		Note:           note,
	}
}
