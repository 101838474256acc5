package httpinterface

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tdex-network/fedbook/internal/core/application"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

const metricsNamespace = "fedbook"

// metrics exposes the state of the federation as prometheus gauges, updated
// on every federation change.
type metrics struct {
	orders              *prometheus.GaugeVec
	coordinatorEnabled  *prometheus.GaugeVec
	coordinatorLoading  *prometheus.GaugeVec
	snapshotVersion     prometheus.Gauge
	bookLoading         prometheus.Gauge
	onlineCoordinators  prometheus.Gauge
	enabledCoordinators prometheus.Gauge

	unsubscribe func()
}

func newMetrics(
	registry prometheus.Registerer, federation *application.Federation,
) (*metrics, error) {
	m := &metrics{
		orders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "orders",
			Help:      "Number of public orders in the book per coordinator",
		}, []string{"coordinator"}),
		coordinatorEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "enabled",
			Help:      "Whether the coordinator contributes to the federation",
		}, []string{"coordinator"}),
		coordinatorLoading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "loading",
			Help:      "Whether a fetch of the coordinator resources is in flight",
		}, []string{"coordinator"}),
		snapshotVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_version",
			Help:      "Version of the current federation snapshot",
		}),
		bookLoading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "book_loading",
			Help:      "Whether the federation book is still loading",
		}),
		onlineCoordinators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "online_coordinators",
			Help:      "Number of coordinators that reported their info",
		}),
		enabledCoordinators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "enabled_coordinators",
			Help:      "Number of enabled coordinators",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.orders, m.coordinatorEnabled, m.coordinatorLoading,
		m.snapshotVersion, m.bookLoading, m.onlineCoordinators,
		m.enabledCoordinators,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	m.update(federation, federation.Snapshot())
	_, m.unsubscribe = federation.Subscribe(func(u application.Update) {
		m.update(federation, u.Snapshot)
	})
	return m, nil
}

func (m *metrics) update(
	federation *application.Federation, snapshot *domain.Snapshot,
) {
	if snapshot == nil {
		return
	}

	ordersByCoordinator := make(map[string]int)
	for _, order := range snapshot.Book {
		ordersByCoordinator[order.Coordinator]++
	}

	m.orders.Reset()
	for alias, count := range ordersByCoordinator {
		m.orders.WithLabelValues(alias).Set(float64(count))
	}
	for _, c := range federation.Coordinators() {
		m.coordinatorEnabled.WithLabelValues(c.ShortAlias()).Set(boolToFloat(c.IsEnabled()))
		m.coordinatorLoading.WithLabelValues(c.ShortAlias()).Set(boolToFloat(c.IsLoading()))
	}
	m.snapshotVersion.Set(float64(snapshot.Version))
	m.bookLoading.Set(boolToFloat(snapshot.Loading))
	m.onlineCoordinators.Set(float64(snapshot.Exchange.OnlineCoordinators))
	m.enabledCoordinators.Set(float64(snapshot.Exchange.EnabledCoordinators))
}

func (m *metrics) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
