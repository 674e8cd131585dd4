package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "obra_vote_requests_total",
		Help: "Total de requisicoes de voto por codigo de resultado",
	}, []string{"code"})

	voteCommitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "obra_vote_commit_duration_seconds",
		Help:    "Tempo da transacao de gravacao do voto",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	workerMigrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "obra_worker_migrations_total",
		Help: "Registros legados migrados para o codigo canonico",
	}, []string{"trigger"})

	voteLogProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obra_vote_log_processed_total",
		Help: "Votos drenados da fila Redis para o Postgres pelo worker",
	})
)

func ObserveVoteRequest(code string) {
	voteRequestsTotal.WithLabelValues(code).Inc()
}

func ObserveCommitDuration(tipo string, seconds float64) {
	voteCommitDuration.WithLabelValues(tipo).Observe(seconds)
}

func IncWorkerMigration(trigger string) {
	workerMigrationsTotal.WithLabelValues(trigger).Inc()
}

func IncVoteLogProcessed() {
	voteLogProcessedTotal.Inc()
}
