package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds Prometheus metrics for rule-engine observability.
// A nil *EngineMetrics is valid and records nothing, so library consumers
// that don't run a metrics endpoint pay no cost.
type EngineMetrics struct {
	// Catalog navigation
	PathResolutions *prometheus.CounterVec
	TreeBuilds      *prometheus.CounterVec
	PathDepth       prometheus.Histogram

	// Coupons
	CouponValidations *prometheus.CounterVec
	CouponUses        *prometheus.CounterVec

	// Shipping
	ShippingCalculations *prometheus.CounterVec
	ShippingCartValue    prometheus.Histogram

	// Pricing slabs
	SlabResolutions *prometheus.CounterVec
}

// NewEngineMetrics creates and registers all engine metrics.
func NewEngineMetrics(namespace string) *EngineMetrics {
	if namespace == "" {
		namespace = "mercata"
	}

	subsystem := "engine"

	return &EngineMetrics{
		PathResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "category_path_resolutions_total",
				Help:      "Total slug-path resolutions by outcome",
			},
			[]string{"outcome"}, // outcome: ok, not_found, inactive, error
		),
		TreeBuilds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "category_tree_builds_total",
				Help:      "Total category subtree materializations by outcome",
			},
			[]string{"outcome"}, // outcome: ok, not_found, error
		),
		PathDepth: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "category_path_depth",
				Help:      "Segment count of resolved slug paths",
				Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15},
			},
		),
		CouponValidations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coupon_validations_total",
				Help:      "Total coupon validations by result",
			},
			[]string{"result"}, // result: valid, unknown_code, inactive, not_started, expired, limit_reached, min_order, error
		),
		CouponUses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coupon_uses_total",
				Help:      "Total coupon redemptions by result",
			},
			[]string{"result"}, // result: ok, limit_reached, not_found, error
		),
		ShippingCalculations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipping_calculations_total",
				Help:      "Total shipping charge calculations by matched tier",
			},
			[]string{"tier"}, // tier: state_range, state_flat, national_range, national_flat, none, empty_cart
		),
		ShippingCartValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipping_cart_value",
				Help:      "Cart value distribution at shipping calculation",
				Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
			},
		),
		SlabResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pricing_slab_resolutions_total",
				Help:      "Total pricing slab lookups by outcome",
			},
			[]string{"outcome"}, // outcome: matched, no_match, invalid
		),
	}
}

// RecordPathResolution counts a slug-path resolution outcome.
func (m *EngineMetrics) RecordPathResolution(outcome string, depth int) {
	if m == nil {
		return
	}
	m.PathResolutions.WithLabelValues(outcome).Inc()
	m.PathDepth.Observe(float64(depth))
}

// RecordTreeBuild counts a subtree materialization outcome.
func (m *EngineMetrics) RecordTreeBuild(outcome string) {
	if m == nil {
		return
	}
	m.TreeBuilds.WithLabelValues(outcome).Inc()
}

// RecordCouponValidation counts a coupon validation result.
func (m *EngineMetrics) RecordCouponValidation(result string) {
	if m == nil {
		return
	}
	m.CouponValidations.WithLabelValues(result).Inc()
}

// RecordCouponUse counts a coupon redemption result.
func (m *EngineMetrics) RecordCouponUse(result string) {
	if m == nil {
		return
	}
	m.CouponUses.WithLabelValues(result).Inc()
}

// RecordShippingCalculation counts a shipping calculation and its cart value.
func (m *EngineMetrics) RecordShippingCalculation(tier string, cartValue float64) {
	if m == nil {
		return
	}
	m.ShippingCalculations.WithLabelValues(tier).Inc()
	m.ShippingCartValue.Observe(cartValue)
}

// RecordSlabResolution counts a pricing slab lookup outcome.
func (m *EngineMetrics) RecordSlabResolution(outcome string) {
	if m == nil {
		return
	}
	m.SlabResolutions.WithLabelValues(outcome).Inc()
}

// Global instance for consumers that prefer package-level access.
var Engine *EngineMetrics

// InitEngineMetrics initializes the global engine metrics instance.
func InitEngineMetrics(namespace string) *EngineMetrics {
	Engine = NewEngineMetrics(namespace)
	return Engine
}
