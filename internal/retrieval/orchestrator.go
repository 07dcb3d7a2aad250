// Package retrieval binds one active provider to a simple view state and
// keeps that state consistent across overlapping retrievals.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/internal/metrics"
	"github.com/Adda-Baaj/khobor-dash/pkg/providers"
)

const (
	// MsgConnectivity is shown for transport failures and anything unexpected.
	MsgConnectivity = "Failed to fetch news. Please check your internet connection and try again."
	// MsgNoArticles is the default empty-result message without a search query.
	MsgNoArticles = "No articles available in this category at the moment."
)

// NoResultsForQuery is the empty-result message for a search query.
func NoResultsForQuery(query string) string {
	return fmt.Sprintf(`No articles found for "%s". Try a different search term.`, query)
}

// State is what a view renders.
type State struct {
	Articles   []domain.Article `json:"articles"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
	Generation uint64           `json:"generation"`
}

// Orchestrator runs retrievals against one fetcher. Each retrieval takes a new
// generation token; a result is applied only if its token is still the latest
// issued, so a slow superseded retrieval never overwrites a newer one.
type Orchestrator struct {
	fetcher  providers.Fetcher
	log      logger.Logger
	onChange func(State)

	gen   atomic.Uint64
	mu    sync.RWMutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.Ensure(log) }
}

// WithOnChange registers a listener called after every applied state change.
// It runs synchronously and must not call back into the Orchestrator.
func WithOnChange(fn func(State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// New creates an Orchestrator for fetcher.
func New(fetcher providers.Fetcher, opts ...Option) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, errors.New("retrieval: fetcher is nil")
	}
	o := &Orchestrator{fetcher: fetcher, log: logger.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return cloneState(o.state)
}

// Retrieve runs one retrieval for category and query and returns the state it
// produced. The bool is false when a newer retrieval started in the meantime;
// the returned state was then discarded and not applied.
func (o *Orchestrator) Retrieve(ctx context.Context, category, query string) (State, bool) {
	gen := o.gen.Add(1)
	retrievalID := uuid.NewString()
	provider := o.fetcher.ID()
	fields := map[string]any{
		"retrieval_id": retrievalID,
		"generation":   gen,
		"provider":     provider,
		"category":     category,
		"query":        query,
	}

	if err := o.fetcher.CheckConfig(); err != nil {
		o.log.WarnObj("provider not configured", "retrieval_config_error", withErr(fields, err))
		metrics.RecordRetrieval(provider, "config_error", 0, 0)
		final := State{Articles: o.State().Articles, Error: err.Error(), Generation: gen}
		return final, o.apply(gen, final)
	}

	o.apply(gen, State{Articles: o.State().Articles, Loading: true, Generation: gen})
	o.log.DebugObj("retrieval started", "retrieval_start", fields)

	start := time.Now()
	articles, err := o.fetch(ctx, category, query)
	elapsed := time.Since(start)

	final := State{Articles: articles, Generation: gen}
	outcome := "ok"
	switch {
	case err != nil:
		final.Articles = o.State().Articles
		final.Error = errorMessage(err)
		outcome = "error"
		o.log.WarnObj("retrieval failed", "retrieval_error", withErr(fields, err))
	case len(articles) == 0:
		final.Articles = []domain.Article{}
		final.Error = o.emptyMessage(query)
		outcome = "empty"
	}
	metrics.RecordRetrieval(provider, outcome, len(final.Articles), elapsed)

	applied := o.apply(gen, final)
	if !applied {
		o.log.InfoObj("discarding superseded retrieval", "retrieval_stale", fields)
	} else {
		o.log.DebugObj("retrieval finished", "retrieval_done", map[string]any{
			"retrieval_id": retrievalID,
			"generation":   gen,
			"articles":     len(final.Articles),
			"outcome":      outcome,
			"elapsed_ms":   elapsed.Milliseconds(),
		})
	}
	return final, applied
}

// fetch calls the provider and turns a panic into an error.
func (o *Orchestrator) fetch(ctx context.Context, category, query string) (articles []domain.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles, err = nil, fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return o.fetcher.FetchArticles(ctx, category, query)
}

// apply stores st if gen is still the latest generation.
func (o *Orchestrator) apply(gen uint64, st State) bool {
	o.mu.Lock()
	if o.gen.Load() != gen {
		o.mu.Unlock()
		return false
	}
	o.state = cloneState(st)
	snapshot := cloneState(st)
	o.mu.Unlock()

	if o.onChange != nil {
		o.onChange(snapshot)
	}
	return true
}

func (o *Orchestrator) emptyMessage(query string) string {
	if q := strings.TrimSpace(query); q != "" {
		return NoResultsForQuery(q)
	}
	if m, ok := o.fetcher.(providers.EmptyResultMessager); ok {
		if msg := m.EmptyResultMessage(); msg != "" {
			return msg
		}
	}
	return MsgNoArticles
}

// errorMessage maps an error to the text shown to users.
func errorMessage(err error) string {
	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Message
	}
	var upstream *providers.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	return MsgConnectivity
}

func cloneState(st State) State {
	if st.Articles != nil {
		st.Articles = append(make([]domain.Article, 0, len(st.Articles)), st.Articles...)
	}
	return st
}

func withErr(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
