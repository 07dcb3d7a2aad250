// Package publishers ships retrieved articles to downstream sinks (HTTP
// endpoints, AWS SNS/SQS and Google Pub/Sub) described in a YAML or JSON file.
package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/internal/metrics"
)

// Logger is the logger publishers write to.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Event is the message body sent to every sink: one article plus the
// retrieval it came from.
type Event struct {
	EventID     string         `json:"event_id"`
	Provider    string         `json:"provider"`
	Category    string         `json:"category"`
	Query       string         `json:"query,omitempty"`
	RetrievedAt time.Time      `json:"retrieved_at"`
	Article     domain.Article `json:"article"`
}

// SourceName is the attribute value sinks use for routing.
func (e Event) SourceName() string {
	return e.Article.Source.Name
}

// NewEvents wraps articles from one retrieval. Articles without an ID get
// one derived from their URL.
func NewEvents(provider, category, query string, retrievedAt time.Time, articles []domain.Article) []Event {
	if len(articles) == 0 {
		return nil
	}
	out := make([]Event, 0, len(articles))
	for _, a := range articles {
		if a.ID == "" {
			a.ID = domain.ArticleID(a.URL)
		}
		out = append(out, Event{
			EventID:     a.ID,
			Provider:    provider,
			Category:    category,
			Query:       query,
			RetrievedAt: retrievedAt.UTC(),
			Article:     a,
		})
	}
	return out
}

// Dispatcher fans events out to a fixed set of publishers.
type Dispatcher struct {
	pubs []Publisher
	log  Logger
}

// NewDispatcher returns a Dispatcher over pubs. Nil entries are skipped.
func NewDispatcher(pubs []Publisher, log Logger) *Dispatcher {
	d := &Dispatcher{log: ensureLogger(log)}
	for _, p := range pubs {
		if p != nil {
			d.pubs = append(d.pubs, p)
		}
	}
	return d
}

// Len reports how many publishers are attached.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pubs)
}

// PublishAll sends every event to every publisher. Publishers run
// concurrently; events for one publisher are sent in order. A failed event
// does not stop the remaining ones. All failures are joined into the
// returned error.
func (d *Dispatcher) PublishAll(ctx context.Context, events []Event) error {
	if d.Len() == 0 || len(events) == 0 {
		return nil
	}

	errs := make([][]error, len(d.pubs))
	var g errgroup.Group
	for i, pub := range d.pubs {
		g.Go(func() error {
			for _, evt := range events {
				if err := pub.Publish(ctx, evt); err != nil {
					metrics.RecordPublish(pub.ID(), "error")
					d.log.WarnObj("publish failed", "publish_error", map[string]any{
						"publisher": pub.ID(),
						"type":      pub.Type(),
						"event_id":  evt.EventID,
						"error":     err.Error(),
					})
					errs[i] = append(errs[i], fmt.Errorf("publisher %s: event %s: %w", pub.ID(), evt.EventID, err))
					continue
				}
				metrics.RecordPublish(pub.ID(), "ok")
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []error
	for _, e := range errs {
		all = append(all, e...)
	}
	return errors.Join(all...)
}

// Close closes every publisher.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, p := range d.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
