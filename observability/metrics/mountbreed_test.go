package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMountBreedMetrics(t *testing.T) {
	m := MountBreed()
	require.Same(t, m, MountBreed())

	before := testutil.ToFloat64(m.operations.WithLabelValues("redeem", "ok"))
	m.ObserveOperation("redeem", "ok", 5*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.operations.WithLabelValues("redeem", "ok")))

	m.ObserveOperation("", "", time.Millisecond)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.operations.WithLabelValues("unknown", "unknown")), 1.0)

	m.SetVaultBalance(2201)
	require.Equal(t, 2201.0, testutil.ToFloat64(m.vaultBalance))

	burned := testutil.ToFloat64(m.rewardBurned)
	m.RecordRedemption(200, 1)
	require.Equal(t, burned+200, testutil.ToFloat64(m.rewardBurned))

	var nilMetrics *MountBreedMetrics
	nilMetrics.ObserveOperation("x", "y", 0)
	nilMetrics.SetVaultBalance(1)
	nilMetrics.RecordRedemption(1, 1)
}
