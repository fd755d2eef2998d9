package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MountBreedMetrics records operation outcomes and vault accounting.
type MountBreedMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	vaultBalance prometheus.Gauge
	rewardBurned prometheus.Counter
	payouts      prometheus.Counter
}

var (
	mountbreedOnce     sync.Once
	mountbreedRegistry *MountBreedMetrics
)

// MountBreed returns the lazily-initialised metrics registry.
func MountBreed() *MountBreedMetrics {
	mountbreedOnce.Do(func() {
		mountbreedRegistry = &MountBreedMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "mountbreed_operations_total",
				Help: "Count of executed operations by name and outcome code.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "mountbreed_operation_duration_seconds",
				Help:    "Wall-clock time spent executing an operation including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"op"}),
			vaultBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "mountbreed_vault_balance",
				Help: "Units currently held by the escrow vault.",
			}),
			rewardBurned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "mountbreed_reward_burned_total",
				Help: "Reward token base units burned by redemptions.",
			}),
			payouts: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "mountbreed_payout_units_total",
				Help: "Vault units paid out by redemptions.",
			}),
		}
		prometheus.MustRegister(
			mountbreedRegistry.operations,
			mountbreedRegistry.latency,
			mountbreedRegistry.vaultBalance,
			mountbreedRegistry.rewardBurned,
			mountbreedRegistry.payouts,
		)
	})
	return mountbreedRegistry
}

// ObserveOperation records the outcome and latency of one operation.
func (m *MountBreedMetrics) ObserveOperation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetVaultBalance publishes the current vault balance.
func (m *MountBreedMetrics) SetVaultBalance(units uint64) {
	if m == nil {
		return
	}
	m.vaultBalance.Set(float64(units))
}

// RecordRedemption accumulates the burned reward and paid-out units.
func (m *MountBreedMetrics) RecordRedemption(burned, payout uint64) {
	if m == nil {
		return
	}
	m.rewardBurned.Add(float64(burned))
	m.payouts.Add(float64(payout))
}
