package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
)

var retrievedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleEvents() []Event {
	return NewEvents("scrape", "technology", "", retrievedAt, []domain.Article{
		{Title: "Chip fab opens", URL: "https://timesofindia.indiatimes.com/technology/1", Source: domain.Source{Name: "Timesofindia"}},
		{ID: "fixed", Title: "Rover lands", URL: "https://example.com/2", Source: domain.Source{Name: "Example"}},
	})
}

func TestNewEvents(t *testing.T) {
	evts := sampleEvents()
	require.Len(t, evts, 2)

	assert.Equal(t, domain.ArticleID("https://timesofindia.indiatimes.com/technology/1"), evts[0].EventID)
	assert.Equal(t, evts[0].EventID, evts[0].Article.ID)
	assert.Equal(t, "fixed", evts[1].EventID)
	assert.Equal(t, "technology", evts[1].Category)
	assert.Equal(t, "Timesofindia", evts[0].SourceName())

	assert.Nil(t, NewEvents("fixture", "general", "", retrievedAt, nil))
}

type fakePublisher struct {
	id     string
	failOn string

	mu     sync.Mutex
	got    []string
	closed bool
}

func (f *fakePublisher) ID() string   { return f.id }
func (f *fakePublisher) Type() string { return "fake" }

func (f *fakePublisher) Publish(_ context.Context, evt Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if evt.EventID == f.failOn {
		return errors.New("boom")
	}
	f.got = append(f.got, evt.EventID)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestDispatcherPublishAll(t *testing.T) {
	good := &fakePublisher{id: "good"}
	flaky := &fakePublisher{id: "flaky", failOn: "fixed"}
	d := NewDispatcher([]Publisher{good, nil, flaky}, nil)
	require.Equal(t, 2, d.Len())

	evts := sampleEvents()
	err := d.PublishAll(context.Background(), evts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publisher flaky")

	assert.Equal(t, []string{evts[0].EventID, "fixed"}, good.got)
	assert.Equal(t, []string{evts[0].EventID}, flaky.got)

	require.NoError(t, d.Close())
	assert.True(t, good.closed)
	assert.True(t, flaky.closed)
}

func TestDispatcherNoop(t *testing.T) {
	var d *Dispatcher
	assert.Zero(t, d.Len())
	assert.NoError(t, d.PublishAll(context.Background(), sampleEvents()))
	assert.NoError(t, NewDispatcher(nil, nil).PublishAll(context.Background(), sampleEvents()))
}

func TestHTTPPublisher(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []Event
		token  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt Event
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &evt)
		mu.Lock()
		bodies = append(bodies, evt)
		token = r.Header.Get("X-Token")
		mu.Unlock()
		if evt.EventID == "fixed" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), sanitize(Config{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{URL: srv.URL, Headers: map[string]string{"X-Token": "t"}},
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, TypeHTTP, pub.Type())

	evts := sampleEvents()
	require.NoError(t, pub.Publish(context.Background(), evts[0]))
	err = pub.Publish(context.Background(), evts[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	require.Len(t, bodies, 2)
	assert.Equal(t, "Chip fab opens", bodies[0].Article.Title)
	assert.Equal(t, "t", token)
}

func TestHTTPPublisherTransportError(t *testing.T) {
	pub := newHTTPPublisherWithClient(Config{ID: "hook", HTTP: &HTTPConfig{URL: "http://127.0.0.1:1"}},
		httpclient.NewRestyClient(time.Second), nil)
	require.Error(t, pub.Publish(context.Background(), sampleEvents()[0]))
}

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

type fakeSQS struct {
	in *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.in = in
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

func TestQueuePublisherSNS(t *testing.T) {
	client := &fakeSNS{}
	pub := &queuePublisher{
		id:       "topic",
		provider: QueueProviderAWSSNS,
		sender:   &snsSender{topicARN: "arn:aws:sns:us-east-1:1:news", client: client},
		log:      ensureLogger(nil),
	}

	evt := sampleEvents()[0]
	require.NoError(t, pub.Publish(context.Background(), evt))

	assert.Equal(t, "arn:aws:sns:us-east-1:1:news", aws.ToString(client.in.TopicArn))
	assert.Equal(t, "Chip fab opens", aws.ToString(client.in.Subject))
	assert.Equal(t, "Timesofindia", aws.ToString(client.in.MessageAttributes["source_name"].StringValue))
	assert.Equal(t, "technology", aws.ToString(client.in.MessageAttributes["category"].StringValue))

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.in.Message)), &decoded))
	assert.Equal(t, evt.EventID, decoded.EventID)

	client.err = errors.New("throttled")
	err := pub.Publish(context.Background(), evt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), QueueProviderAWSSNS)
}

func TestQueuePublisherSQS(t *testing.T) {
	client := &fakeSQS{}
	pub := &queuePublisher{
		id:       "q",
		provider: QueueProviderAWSSQS,
		sender:   &sqsSender{queueURL: "https://sqs.local/q", client: client},
		log:      ensureLogger(nil),
	}

	require.NoError(t, pub.Publish(context.Background(), sampleEvents()[1]))
	assert.Equal(t, "https://sqs.local/q", aws.ToString(client.in.QueueUrl))
	assert.Equal(t, "scrape", aws.ToString(client.in.MessageAttributes["provider"].StringValue))
	assert.Contains(t, aws.ToString(client.in.MessageBody), `"event_id":"fixed"`)
}

func TestTruncateSubject(t *testing.T) {
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'অ'
	}
	got := []rune(truncateSubject(string(long)))
	assert.Len(t, got, 100)
	assert.Equal(t, "short", truncateSubject("short"))
}

func TestPubSubSender(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	sender, err := newPubSubSender(ctx, &PubSubConfig{ProjectID: "khobor", Topic: "articles"}, option.WithGRPCConn(conn))
	require.NoError(t, err)
	ps := sender.(*pubSubSender)
	_, err = ps.client.CreateTopic(ctx, "articles")
	require.NoError(t, err)

	pub := &queuePublisher{id: "gcp", provider: QueueProviderGCP, sender: sender, log: ensureLogger(nil)}
	require.NoError(t, pub.Publish(ctx, sampleEvents()[0]))
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Timesofindia", msgs[0].Attributes["source_name"])
	assert.Contains(t, string(msgs[0].Data), "Chip fab opens")
}

func TestRegistryBuildDispatcher(t *testing.T) {
	built := &fakePublisher{id: "a"}
	reg := NewRegistry(map[string]Builder{
		"fake": func(_ context.Context, cfg Config, _ Logger) (Publisher, error) {
			if cfg.ID == "broken" {
				return nil, errors.New("no creds")
			}
			return built, nil
		},
		"": func(context.Context, Config, Logger) (Publisher, error) { return nil, nil },
	})

	d, err := reg.BuildDispatcher(context.Background(), []Config{{ID: "a", Type: "FAKE"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	_, err = reg.BuildDispatcher(context.Background(), []Config{{ID: "a", Type: "fake"}, {ID: "broken", Type: "fake"}}, nil)
	require.Error(t, err)
	assert.True(t, built.closed)

	_, err = reg.Build(context.Background(), Config{ID: "x", Type: "kafka"}, nil)
	require.Error(t, err)
}

func TestDefaultRegistryBuildsHTTP(t *testing.T) {
	pub, err := DefaultRegistry().Build(context.Background(), sanitize(Config{
		ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://hooks.example.com"},
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, "hook", pub.ID())
}
