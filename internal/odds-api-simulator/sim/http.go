package sim

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var requestsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "simulator_requests_total",
	Help: "Requisições atendidas pelo simulador por endpoint.",
}, []string{"endpoint"})

// RegisterMetrics registra os contadores do simulador.
func RegisterMetrics(reg prometheus.Registerer) { reg.MustRegister(requestsServed) }

// quota fixa anunciada nos cabeçalhos, como o fornecedor real
const quotaTotal = 500

// Handler expõe as rotas /v4/sports... Com apiKey vazio qualquer chave é aceita.
func (s *Simulator) Handler(apiKey string) http.Handler {
	r := chi.NewRouter()
	var used int
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" && r.URL.Query().Get("apiKey") != apiKey {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
				return
			}
			s.mu.Lock()
			used++
			n := used
			s.mu.Unlock()
			w.Header().Set("x-requests-used", strconv.Itoa(n))
			w.Header().Set("x-requests-remaining", strconv.Itoa(max(quotaTotal-n, 0)))
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/v4/sports", func(w http.ResponseWriter, r *http.Request) {
		requestsServed.WithLabelValues("sports").Inc()
		writeJSON(w, http.StatusOK, []map[string]any{
			{"key": s.sport, "group": "Basketball", "title": "NBA", "active": true},
		})
	})
	r.Get("/v4/sports/{sport}/odds", func(w http.ResponseWriter, r *http.Request) {
		if !s.knows(w, r) {
			return
		}
		requestsServed.WithLabelValues("odds").Inc()
		allowed := map[string]bool{}
		for _, b := range strings.Split(r.URL.Query().Get("bookmakers"), ",") {
			if b = strings.TrimSpace(b); b != "" {
				allowed[b] = true
			}
		}
		writeJSON(w, http.StatusOK, s.Odds(allowed))
	})
	r.Get("/v4/sports/{sport}/scores", func(w http.ResponseWriter, r *http.Request) {
		if !s.knows(w, r) {
			return
		}
		requestsServed.WithLabelValues("scores").Inc()
		days := 1
		if v := r.URL.Query().Get("daysFrom"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 3 {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "daysFrom must be between 1 and 3"})
				return
			}
			days = n
		}
		writeJSON(w, http.StatusOK, s.Scores(days))
	})
	return r
}

func (s *Simulator) knows(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "sport") != s.sport {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Unknown sport"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
