package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, Status(nil))
	assert.Equal(t, StatusFailure, Status(fmt.Errorf("x")))
}

func TestThroughputTracker(t *testing.T) {
	tr := NewThroughputTracker("metrics_test")
	tr.Increment(10)
	tr.Increment(5)
	assert.Equal(t, int64(15), tr.Count())

	time.Sleep(10 * time.Millisecond)
	rate := tr.GetAndReset()
	assert.Greater(t, rate, 0.0)
	assert.Equal(t, int64(0), tr.Count())
	assert.InDelta(t, rate, testutil.ToFloat64(Throughput.WithLabelValues("metrics_test")), 1e-9)
}

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(Skipped.WithLabelValues("metrics_test", "reason"))
	Skipped.WithLabelValues("metrics_test", "reason").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Skipped.WithLabelValues("metrics_test", "reason")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, timer.Stop(), first)
}
