package metrics

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/csv/{id}", "404"))

	RecordHTTPRequest("GET", "/api/v1/csv/{id}", 404, 15*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/csv/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordAuthAndUpload(t *testing.T) {
	authBefore := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "ok"))
	bytesBefore := testutil.ToFloat64(UploadedBytes)

	RecordAuth("login", "ok")
	RecordUpload(128)

	assert.Equal(t, authBefore+1, testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "ok")))
	assert.Equal(t, bytesBefore+128, testutil.ToFloat64(UploadedBytes))
}

func TestNotify(t *testing.T) {
	var m notify.Metrics = Notify{}

	m.ConnectionsChanged(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(WSConnections))

	b, d, p := testutil.ToFloat64(Broadcasts), testutil.ToFloat64(BroadcastDeliveries), testutil.ToFloat64(BroadcastPruned)
	m.Broadcasted(notify.BroadcastResult{Delivered: 2, Pruned: 1})

	assert.Equal(t, b+1, testutil.ToFloat64(Broadcasts))
	assert.Equal(t, d+2, testutil.ToFloat64(BroadcastDeliveries))
	assert.Equal(t, p+1, testutil.ToFloat64(BroadcastPruned))
}
