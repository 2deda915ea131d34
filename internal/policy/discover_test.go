package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLinks(t *testing.T) {
	page := `<html><body>
		<a href="/about">About us</a>
		<a href="/legal/cookies">Cookie privacy settings</a>
		<a href="https://other.example/privacy">Partner privacy</a>
		<a href="/legal/privacy#top">Privacy Policy</a>
		<a href="/legal/privacy">Privacy Policy</a>
		<a href="https://help.shop.example/datenschutz">Hilfe</a>
		<a href="mailto:privacy@shop.example">Email privacy team</a>
	</body></html>`

	links, err := FindLinks(page, "https://www.shop.example/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.shop.example/legal/privacy",
		"https://www.shop.example/legal/cookies",
		"https://help.shop.example/datenschutz",
	}, links)
}

func TestFindLinks_NoCandidates(t *testing.T) {
	links, err := FindLinks(`<a href="/shop">Shop</a>`, "https://shop.example")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestFindLinks_InvalidBase(t *testing.T) {
	_, err := FindLinks(`<a href="/privacy">Privacy</a>`, "/relative")
	assert.Error(t, err)
}

func TestFetcher_Discover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`<html><body><footer><a href="/privacy-notice">Privacy notice</a></footer></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, false)
	link, err := f.Discover(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/privacy-notice", link)
}

func TestFetcher_DiscoverNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/shop">Shop</a></body></html>`))
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, false)
	_, err := f.Discover(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNoPolicyLink)
}
