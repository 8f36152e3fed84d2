// Package metrics собирает Prometheus-метрики операций с выдачами.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector реализует счётчики операций с выдачами.
type Collector struct {
	reserves   prometheus.Counter
	renewals   prometheus.Counter
	returns    prometheus.Counter
	rejections *prometheus.CounterVec
	fines      prometheus.Histogram
}

// NewCollector создаёт Collector и регистрирует метрики в переданном реестре.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reserves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_reserved_total",
			Help: "Общее количество успешных бронирований",
		}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_renewed_total",
			Help: "Общее количество успешных продлений",
		}),
		returns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_loans_returned_total",
			Help: "Общее количество возвратов",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_loans_rejections_total",
			Help: "Количество бизнес-отказов по операциям",
		}, []string{"operation"}),
		fines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "library_loans_fine_amount",
			Help:    "Размер штрафа, зафиксированного при возврате",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
	}
	reg.MustRegister(c.reserves, c.renewals, c.returns, c.rejections, c.fines)
	return c
}

// RecordReserve учитывает успешное бронирование.
func (c *Collector) RecordReserve() { c.reserves.Inc() }

// RecordRenew учитывает успешное продление.
func (c *Collector) RecordRenew() { c.renewals.Inc() }

// RecordReturn учитывает возврат.
func (c *Collector) RecordReturn() { c.returns.Inc() }

// RecordRejection учитывает бизнес-отказ по операции.
func (c *Collector) RecordRejection(operation string) {
	c.rejections.WithLabelValues(operation).Inc()
}

// RecordFineAssessed учитывает размер зафиксированного штрафа.
func (c *Collector) RecordFineAssessed(amount float64) { c.fines.Observe(amount) }
