package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestObserveCache(t *testing.T) {
	hits := counterValue(t, CacheHits.WithLabelValues("strategy"))
	misses := counterValue(t, CacheMisses.WithLabelValues("strategy"))

	ObserveCache("strategy", true)
	ObserveCache("strategy", false)
	ObserveCache("strategy", false)

	assert.Equal(t, hits+1, counterValue(t, CacheHits.WithLabelValues("strategy")))
	assert.Equal(t, misses+2, counterValue(t, CacheMisses.WithLabelValues("strategy")))
}

func TestObserveStorage(t *testing.T) {
	hits := counterValue(t, StorageHits)
	misses := counterValue(t, StorageMisses)

	ObserveStorage(true)
	ObserveStorage(false)

	assert.Equal(t, hits+1, counterValue(t, StorageHits))
	assert.Equal(t, misses+1, counterValue(t, StorageMisses))
}
