package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting-api/dto"
	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/placement"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
)

var validate = validator.New()

// GamesCache é opcional; sem cache toda listagem vai ao banco.
type GamesCache interface {
	GetGames(ctx context.Context, status string, dst any) (bool, error)
	SetGames(ctx context.Context, status string, v any, ttl time.Duration) error
}

type Server struct {
	log      *zap.Logger
	bets     *placement.Service
	cache    GamesCache
	cacheTTL time.Duration
	adminKey string
}

func NewServer(log *zap.Logger, bets *placement.Service, cache GamesCache, cacheTTL time.Duration, adminKey string) *Server {
	return &Server{log: log, bets: bets, cache: cache, cacheTTL: cacheTTL, adminKey: adminKey}
}

// Router retorna o roteador HTTP com os endpoints REST
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/games", s.listGames)                   // ?status=upcoming|in_progress|completed
	r.Post("/bets", s.placeBet)                    // ?user_id=
	r.Get("/users/{id}/bets", s.betHistory)        // ?limit=
	r.Get("/users/{id}/bets/pending", s.pendingBets)
	r.Get("/users/{id}/balance", s.balance)
	r.Post("/users", s.createUser) // exige X-Admin-Key
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz a taxonomia de erros para status HTTP. Mensagens de regra
// vão verbatim para o cliente; erros internos não.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidBet), errors.Is(err, domain.ErrInsufficientBalance):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	default:
		s.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	status := domain.GameUpcoming
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := domain.ParseGameStatus(v)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		status = st
	}

	if s.cache != nil {
		var cached []domain.Game
		if ok, err := s.cache.GetGames(r.Context(), status.String(), &cached); err == nil && ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	games, err := s.bets.ListGames(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	if s.cache != nil {
		if err := s.cache.SetGames(r.Context(), status.String(), games, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache games", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		badRequest(w, "user_id query parameter must be a uuid")
		return
	}

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}

	// já validados pelo oneof
	betType, _ := domain.ParseBetType(req.BetType)
	sel, _ := domain.ParseBetSelection(req.Selection)
	gameID := uuid.MustParse(req.GameID)

	bet, err := s.bets.PlaceBet(r.Context(), userID, gameID, betType, sel, req.Stake)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromBet(bet))
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "user id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) betHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	limit := placement.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	bets, err := s.bets.GetBetHistory(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBets(bets))
}

func (s *Server) pendingBets(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	bets, err := s.bets.GetPendingBets(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromBets(bets))
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	bal, err := s.bets.GetUserBalance(r.Context(), userID)
	if errors.Is(err, domain.ErrInvalidBet) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID.String(), Balance: bal.StringFixed(2)})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Admin-Key")
	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "invalid admin key"})
		return
	}

	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}

	u, err := s.bets.CreateUser(r.Context(), req.Username, req.Balance)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromUser(u))
}
