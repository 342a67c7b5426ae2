// Package metrics объявляет счётчики Prometheus сервиса.
// Все метрики регистрируются в реестре по умолчанию и отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContentResolveTotal считает результаты поиска контента по уровням хранилища.
	// Метка tier: имя хранилища, в котором найден артефакт, или "miss".
	ContentResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "content_resolve_total",
		Help: "Content lookups partitioned by the tier that answered.",
	}, []string{"tier"})

	// ContentPersistFailuresTotal считает неудачные записи в удалённые хранилища.
	ContentPersistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "content_persist_failures_total",
		Help: "Failed writes to remote content stores.",
	}, []string{"tier"})

	// CreditsChargedTotal сумма списанных кредитов.
	CreditsChargedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credits_charged_total",
		Help: "Total credits deducted from users.",
	})

	// ChargeRejectedTotal число отказов из-за нехватки кредитов.
	ChargeRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credits_charge_rejected_total",
		Help: "Charges rejected because of insufficient credits.",
	})

	// ProducerRequestsTotal запросы к внешнему генератору контента по исходу.
	ProducerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "producer_requests_total",
		Help: "Requests to the content producer partitioned by outcome.",
	}, []string{"outcome"})

	// ActivityEntriesTotal записи журнала активности по типу действия.
	ActivityEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_entries_total",
		Help: "Activity log entries recorded, by action.",
	}, []string{"action"})
)
