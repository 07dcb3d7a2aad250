package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRetrieval(t *testing.T) {
	before := testutil.ToFloat64(RetrievalsTotal.WithLabelValues("test", "ok"))
	RecordRetrieval("test", "ok", 3, 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(RetrievalsTotal.WithLabelValues("test", "ok")))
}

func TestCounters(t *testing.T) {
	RecordScrapeTarget("TOI Tech", "empty")
	RecordProxyRequest("bad_request")
	RecordPublish("hook", "error")

	assert.GreaterOrEqual(t, testutil.ToFloat64(ScrapeTargetsTotal.WithLabelValues("TOI Tech", "empty")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ProxyRequestsTotal.WithLabelValues("bad_request")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(PublishTotal.WithLabelValues("hook", "error")), 1.0)
}
