package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contractsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paymaster_contracts_created_total",
		Help: "Number of contracts created through the API.",
	})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paymaster_payments_total",
		Help: "Payment attempts, labelled by result.",
	}, []string{"result"})

	sweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paymaster_sweep_runs_total",
		Help: "Completed overdue sweep runs.",
	})

	installmentsMarkedOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paymaster_installments_marked_overdue_total",
		Help: "Installments marked overdue by sweeps.",
	})
)
