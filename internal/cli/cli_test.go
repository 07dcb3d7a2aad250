package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/khobor-dash/internal/retrieval"
	"github.com/Adda-Baaj/khobor-dash/pkg/publishers"
)

// setupEnv isolates a test from the caller's config, .env and keystore.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("KHOBOR_KEYSTORE_PATH", filepath.Join(dir, "keys.db"))
	t.Setenv("KHOBOR_FIXTURE_DELAY", "0s")
	t.Setenv("KHOBOR_LOG_LEVEL", "error")
	t.Setenv("KHOBOR_SOURCE", "fixture")
	t.Setenv("KHOBOR_HEADLINE_API_KEY", "")
	t.Setenv("KHOBOR_SCRAPE_API_KEY", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root := NewRootCommand(buf)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func decodeState(t *testing.T, out string) retrieval.State {
	t.Helper()
	var st retrieval.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	return st
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"fetch", "proxy", "key"} {
		assert.Contains(t, out, name)
	}
}

func TestFetchFixture(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "fetch", "--category", "sports")
	require.NoError(t, err)

	st := decodeState(t, out)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.NotEmpty(t, st.Articles)
	for _, a := range st.Articles {
		assert.Contains(t, a.Title, "Sports")
	}
}

func TestFetchFixtureNoMatch(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "fetch", "-q", "mars")
	require.NoError(t, err)
	st := decodeState(t, out)
	assert.Empty(t, st.Articles)
	assert.Equal(t, `No articles found for "mars". Try a different search term.`, st.Error)
}

func TestFetchHeadlineWithoutKeyReportsConfigError(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "fetch", "--source", "headline")
	require.NoError(t, err)
	assert.Equal(t, "NewsAPI key not configured", decodeState(t, out).Error)
}

func TestFetchUnknownSource(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "fetch", "--source", "rss")
	require.Error(t, err)
}

func newHeadlineServer(t *testing.T, goodKey string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != goodKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok","totalResults":1,"articles":[
			{"source":{"id":null,"name":"Reuters"},"author":null,"title":"Markets open higher",
			 "description":"Stocks rose.","url":"https://reuters.com/a","urlToImage":null,
			 "publishedAt":"2025-01-02T03:04:05Z","content":null}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStoredHeadlineKeyIsInjected(t *testing.T) {
	setupEnv(t)
	srv := newHeadlineServer(t, "good-key")
	t.Setenv("KHOBOR_HEADLINE_BASE_URL", srv.URL)

	_, err := run(t, "key", "set", "headline", "good-key")
	require.NoError(t, err)

	out, err := run(t, "fetch", "--source", "headline")
	require.NoError(t, err)
	st := decodeState(t, out)
	require.Len(t, st.Articles, 1)
	assert.Equal(t, "Reuters", st.Articles[0].Source.Name)
	assert.Equal(t, "Staff Writer", st.Articles[0].Author)
}

func TestConfiguredKeyWinsOverStored(t *testing.T) {
	setupEnv(t)
	srv := newHeadlineServer(t, "env-key")
	t.Setenv("KHOBOR_HEADLINE_BASE_URL", srv.URL)

	_, err := run(t, "key", "set", "headline", "stored-key")
	require.NoError(t, err)
	t.Setenv("KHOBOR_HEADLINE_API_KEY", "env-key")

	out, err := run(t, "fetch", "--source", "headline")
	require.NoError(t, err)
	assert.Len(t, decodeState(t, out).Articles, 1)
}

func TestKeySetGet(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "key", "set", "scrape", "fc-0123456789abcdef")
	require.NoError(t, err)

	out, err := run(t, "key", "get", "firecrawl")
	require.NoError(t, err)
	assert.Equal(t, "fc-0***********cdef", strings.TrimSpace(out))

	out, err = run(t, "key", "get", "scrape", "--reveal")
	require.NoError(t, err)
	assert.Equal(t, "fc-0123456789abcdef", strings.TrimSpace(out))

	_, err = run(t, "key", "get", "headline")
	require.Error(t, err)

	_, err = run(t, "key", "set", "weather", "x")
	require.Error(t, err)
}

func TestKeyVerify(t *testing.T) {
	setupEnv(t)
	srv := newHeadlineServer(t, "good-key")
	t.Setenv("KHOBOR_HEADLINE_BASE_URL", srv.URL)

	out, err := run(t, "key", "verify", "good-key")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	_, err = run(t, "key", "verify", "bad-key")
	require.ErrorIs(t, err, errInvalidKey)

	_, err = run(t, "key", "verify")
	require.Error(t, err)
}

func TestFetchPublishesToWebhook(t *testing.T) {
	dir := setupEnv(t)

	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		_ = json.NewDecoder(r.Body).Decode(&evt)
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	pubFile := filepath.Join(dir, "publishers.yaml")
	require.NoError(t, os.WriteFile(pubFile, []byte("publishers:\n  - id: hook\n    type: http\n    http:\n      url: "+hook.URL+"\n"), 0o600))
	t.Setenv("KHOBOR_PUBLISHERS_FILE", pubFile)

	out, err := run(t, "fetch", "--category", "health", "--publish")
	require.NoError(t, err)
	st := decodeState(t, out)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, len(st.Articles))
	for _, evt := range events {
		assert.Equal(t, "fixture", evt.Provider)
		assert.Equal(t, "health", evt.Category)
		assert.NotEmpty(t, evt.EventID)
	}
}

func TestFetchPublishWithoutFile(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "fetch", "--publish")
	require.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "abcd**ghij", mask("abcdefghij"))
}
