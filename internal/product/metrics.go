package product

import "github.com/prometheus/client_golang/prometheus"

const (
	opCreate   = "create"
	opUpdate   = "update"
	opDelete   = "delete"
	opAddUnit  = "add_unit"
	opSellUnit = "sell_unit"
)

// InventoryMetrics counts successful store mutations by operation. A nil
// receiver is a no-op.
type InventoryMetrics struct {
	Operations *prometheus.CounterVec
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	m := &InventoryMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_operations_total",
				Help: "Successful product mutations by operation",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.Operations)
	return m
}

func (m *InventoryMetrics) observe(op string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op).Inc()
}
