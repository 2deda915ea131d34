package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/privacy-lens/internal/db"
	"github.com/jonathan/privacy-lens/internal/scoring"
	"github.com/jonathan/privacy-lens/internal/types"
)

func seedSQLite(t *testing.T, site *types.Site) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.db")

	store, err := db.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.UpsertByURL(context.Background(), site.URL, site)
	require.NoError(t, err)
	return path
}

func storedSite() *types.Site {
	return &types.Site{
		URL: "https://shop.example",
		Trackers: []string{
			"www.google-analytics.com",
			"stats.g.doubleclick.net",
			"connect.facebook.net",
		},
		PolicyText:   "We never sell your data. You can opt out at any time.",
		LastAnalyzed: time.Now().UTC(),
	}
}

func TestWhatIfCommand_BlocksCategories(t *testing.T) {
	isolateEnv(t)
	site := storedSite()
	t.Setenv("SQLITE_PATH", seedSQLite(t, site))

	out, err := execute(t, "whatif", site.URL, "--block", "advertising,Analytics", "--json")
	require.NoError(t, err)

	var got scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	want := scoring.WhatIf(scoring.Input{
		URL:        site.URL,
		PolicyText: site.PolicyText,
		Trackers:   site.Trackers,
	}, []types.TrackerCategory{types.CategoryAdvertising, types.CategoryAnalytics})
	assert.Equal(t, want, got)
	assert.Equal(t, "what-if", got.Profile)
}

func TestWhatIfCommand_NothingBlocked(t *testing.T) {
	isolateEnv(t)
	site := storedSite()
	t.Setenv("SQLITE_PATH", seedSQLite(t, site))

	out, err := execute(t, "whatif", site.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Grade")
}

func TestWhatIfCommand_NotStored(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "empty.db"))

	_, err := execute(t, "whatif", "https://never.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored analysis")
}

func TestWhatIfCommand_UnknownCategory(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "whatif", "https://shop.example", "--block", "cookies")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tracker category")
}

func TestParseCategories(t *testing.T) {
	got, err := parseCategories([]string{" tag manager ", "CDN/Utility"})
	require.NoError(t, err)
	assert.Equal(t, []types.TrackerCategory{types.CategoryTagManager, types.CategoryCDNUtility}, got)

	got, err = parseCategories(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
