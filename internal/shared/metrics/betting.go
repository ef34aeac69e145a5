package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Betting agrupa os contadores do núcleo de apostas. Um *Betting nil é válido
// e descarta as observações (usado em testes e CLIs).
type Betting struct {
	betsPlaced     prometheus.Counter
	betsRejected   *prometheus.CounterVec
	betsSettled    *prometheus.CounterVec
	payoutTotal    prometheus.Counter
	gamesSynced    *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec
}

// NewBetting cria e registra os contadores em reg.
func NewBetting(reg prometheus.Registerer) *Betting {
	m := &Betting{
		betsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bets_placed_total",
			Help: "Apostas aceitas.",
		}),
		betsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bets_rejected_total",
			Help: "Apostas recusadas por motivo.",
		}, []string{"reason"}),
		betsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bets_settled_total",
			Help: "Apostas liquidadas por resultado.",
		}, []string{"outcome"}),
		payoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_payout_total",
			Help: "Valor total creditado em liquidações.",
		}),
		gamesSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "games_synced_total",
			Help: "Jogos reconciliados por resultado (created, updated, frozen, completed).",
		}, []string{"result"}),
		recordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_records_skipped_total",
			Help: "Registros do feed descartados por etapa.",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.betsPlaced, m.betsRejected, m.betsSettled, m.payoutTotal, m.gamesSynced, m.recordsSkipped)
	return m
}

func (m *Betting) BetPlaced() {
	if m == nil {
		return
	}
	m.betsPlaced.Inc()
}

func (m *Betting) BetRejected(reason string) {
	if m == nil {
		return
	}
	m.betsRejected.WithLabelValues(reason).Inc()
}

// BetSettled conta a aposta e soma o valor creditado.
func (m *Betting) BetSettled(outcome string, credited float64) {
	if m == nil {
		return
	}
	m.betsSettled.WithLabelValues(outcome).Inc()
	m.payoutTotal.Add(credited)
}

func (m *Betting) GamesSynced(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.gamesSynced.WithLabelValues(result).Add(float64(n))
}

func (m *Betting) RecordsSkipped(stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsSkipped.WithLabelValues(stage).Add(float64(n))
}
