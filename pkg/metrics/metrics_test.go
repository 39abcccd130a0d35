package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAssistantCall(t *testing.T) {
	before := testutil.CollectAndCount(AssistantDuration)

	RecordAssistantCall("metrics_test_op", nil, 0.2)
	RecordAssistantCall("metrics_test_op", errors.New("boom"), 0.1)

	assert.Equal(t, before+2, testutil.CollectAndCount(AssistantDuration))
}

func TestRecordUpload(t *testing.T) {
	bytesBefore := testutil.ToFloat64(UploadBytesTotal)

	RecordUpload("metrics-test-course", 2048)

	assert.Equal(t, float64(1), testutil.ToFloat64(UploadsTotal.WithLabelValues("metrics-test-course")))
	assert.Equal(t, bytesBefore+2048, testutil.ToFloat64(UploadBytesTotal))
}

func TestSSEConnections(t *testing.T) {
	before := testutil.ToFloat64(SSEConnectionsActive)

	IncrementSSEConnections()
	assert.Equal(t, before+1, testutil.ToFloat64(SSEConnectionsActive))
	DecrementSSEConnections()
	assert.Equal(t, before, testutil.ToFloat64(SSEConnectionsActive))
}

func TestRecordRequest(t *testing.T) {
	RecordRequest("GET", "/metrics-test", "200", 0.01)
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/metrics-test", "200")))
}
