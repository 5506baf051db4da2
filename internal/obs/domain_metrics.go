package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartLinesRemovedTotal counts cart lines dropped by reconciliation,
	// labelled by removal reason.
	CartLinesRemovedTotal *prometheus.CounterVec
	// CheckoutRejectedTotal counts rejected checkout attempts by reason.
	CheckoutRejectedTotal *prometheus.CounterVec
	// CatalogFetchTotal counts product snapshot fetch outcomes.
	CatalogFetchTotal *prometheus.CounterVec
	// OrderSubmitTotal counts order submission outcomes.
	OrderSubmitTotal *prometheus.CounterVec
	// SummaryRefreshTotal counts summary projection refresh outcomes.
	SummaryRefreshTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartLinesRemovedTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_lines_removed_total",
			Help:      "Cart lines removed during reconciliation against fresh catalog data.",
		}, []string{"reason"}))
		CheckoutRejectedTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejected_total",
			Help:      "Checkout attempts rejected before submission, by reason.",
		}, []string{"reason"}))
		CatalogFetchTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_total",
			Help:      "Product snapshot fetches against the catalog service, by result.",
		}, []string{"result"}))
		OrderSubmitTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_submit_total",
			Help:      "Order submissions to the order service, by result.",
		}, []string{"result"}))
		SummaryRefreshTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_refresh_total",
			Help:      "Top-products summary refresh outcomes.",
		}, []string{"result"}))
	})
}
