// Package http is the JSON API surface. It wires the services to routes,
// applies security headers and per-IP rate limiting, and caches the computed
// dashboard and report views.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/reisftw/duogesto/internal/auth"
	"github.com/reisftw/duogesto/internal/cache"
	"github.com/reisftw/duogesto/internal/core"
	"github.com/reisftw/duogesto/internal/services"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the API needs. Both the SQLite repository
// and the in-memory store satisfy it.
type Store interface {
	CreateIncome(ctx context.Context, in core.Income) (string, error)
	GetIncome(ctx context.Context, id string) (core.Income, error)
	ListIncomes(ctx context.Context) ([]core.Income, error)
	UpdateIncome(ctx context.Context, in core.Income) error
	DeleteIncome(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, e core.Expense) (string, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	SetExpensePayments(ctx context.Context, id string, payments []core.Payment) error

	CreateGoal(ctx context.Context, g core.Goal) (string, error)
	GetGoal(ctx context.Context, id string) (core.Goal, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	SetGoalAmount(ctx context.Context, id string, amount decimal.Decimal) error

	CreateMovement(ctx context.Context, m core.Movement) (string, error)
	GetMovement(ctx context.Context, id string) (core.Movement, error)
	ListMovements(ctx context.Context, goalID string) ([]core.Movement, error)
	DeleteMovement(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tr core.Transaction) (string, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c core.Category) (string, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u core.User) (string, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	UpdateUser(ctx context.Context, u core.User) error

	CreateRoom(ctx context.Context, r core.Room) (string, error)
	ListRooms(ctx context.Context) ([]core.Room, error)
	DeleteRoom(ctx context.Context, id string) error

	CreateHomeItem(ctx context.Context, it core.HomeItem) (string, error)
	ListHomeItems(ctx context.Context) ([]core.HomeItem, error)
	ToggleHomeItemBought(ctx context.Context, id string) (bool, error)
	DeleteHomeItem(ctx context.Context, id string) error

	CreateProperty(ctx context.Context, p core.Property) (string, error)
	ListProperties(ctx context.Context) ([]core.Property, error)
	UpdateProperty(ctx context.Context, p core.Property) error
	DeleteProperty(ctx context.Context, id string) error

	CreateTravel(ctx context.Context, t core.Travel) (string, error)
	ListTravels(ctx context.Context) ([]core.Travel, error)
	UpdateTravel(ctx context.Context, t core.Travel) error
	DeleteTravel(ctx context.Context, id string) error
}

type Server struct {
	http.Server
	store        Store
	goals        *services.GoalService
	installments *services.InstallmentService
	accounts     *auth.Service
	events       services.Publisher
	rateLimiter  *rateLimiter

	// Cached computed views, keyed by user and month. Any write through the
	// API clears them.
	dashboardCache *cache.LRUCache[DashboardResponse]
	reportCache    *cache.LRUCache[services.CoupleReport]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, events services.Publisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		goals:            services.NewGoalService(store, store, events),
		installments:     services.NewInstallmentService(store, events),
		accounts:         auth.NewService(store),
		events:           events,
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRUCache[DashboardResponse](100, 5*time.Minute),
		reportCache:      cache.NewLRUCache[services.CoupleReport](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/login", s.secured(s.handleLogin))
	mux.HandleFunc("POST /api/users", s.secured(s.handleRegister))
	mux.HandleFunc("POST /api/users/{id}/partner", s.secured(s.handleLinkPartner))
	mux.HandleFunc("POST /api/users/{id}/password", s.secured(s.handleChangePassword))
	mux.HandleFunc("POST /api/users/{id}/accounting-start", s.secured(s.handleAccountingStart))

	mux.HandleFunc("GET /api/incomes", s.secured(s.handleListIncomes))
	mux.HandleFunc("POST /api/incomes", s.secured(s.handleCreateIncome))
	mux.HandleFunc("PUT /api/incomes/{id}", s.secured(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.secured(s.handleDeleteIncome))

	mux.HandleFunc("GET /api/expenses", s.secured(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.secured(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.secured(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.secured(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/expenses/{id}/payments/{n}", s.secured(s.handleTogglePayment))

	mux.HandleFunc("GET /api/goals", s.secured(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.secured(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.secured(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.secured(s.handleDeleteGoal))
	mux.HandleFunc("GET /api/goals/{id}/history", s.secured(s.handleGoalHistory))
	mux.HandleFunc("POST /api/goals/{id}/deposit", s.secured(s.handleDeposit))
	mux.HandleFunc("POST /api/goals/{id}/withdraw", s.secured(s.handleWithdraw))
	mux.HandleFunc("POST /api/goals/{id}/transfer", s.secured(s.handleTransfer))
	mux.HandleFunc("DELETE /api/movements/{id}", s.secured(s.handleReverseMovement))

	mux.HandleFunc("GET /api/dashboard", s.secured(s.handleDashboard))
	mux.HandleFunc("GET /api/report", s.secured(s.handleReport))

	mux.HandleFunc("GET /api/transactions", s.secured(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.secured(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secured(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.secured(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secured(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/rooms", s.secured(s.handleListRooms))
	mux.HandleFunc("POST /api/rooms", s.secured(s.handleCreateRoom))
	mux.HandleFunc("DELETE /api/rooms/{id}", s.secured(s.handleDeleteRoom))

	mux.HandleFunc("GET /api/home-items", s.secured(s.handleListHomeItems))
	mux.HandleFunc("POST /api/home-items", s.secured(s.handleCreateHomeItem))
	mux.HandleFunc("POST /api/home-items/{id}/toggle", s.secured(s.handleToggleHomeItem))
	mux.HandleFunc("DELETE /api/home-items/{id}", s.secured(s.handleDeleteHomeItem))

	mux.HandleFunc("GET /api/properties", s.secured(s.handleListProperties))
	mux.HandleFunc("POST /api/properties", s.secured(s.handleCreateProperty))
	mux.HandleFunc("PUT /api/properties/{id}", s.secured(s.handleUpdateProperty))
	mux.HandleFunc("DELETE /api/properties/{id}", s.secured(s.handleDeleteProperty))

	mux.HandleFunc("GET /api/travels", s.secured(s.handleListTravels))
	mux.HandleFunc("POST /api/travels", s.secured(s.handleCreateTravel))
	mux.HandleFunc("PUT /api/travels/{id}", s.secured(s.handleUpdateTravel))
	mux.HandleFunc("POST /api/travels/{id}/comments", s.secured(s.handleAddTravelComment))
	mux.HandleFunc("DELETE /api/travels/{id}", s.secured(s.handleDeleteTravel))

	return s
}

// secured adds security headers, rate limiting and request logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.dashboardCache.CleanExpired() + s.reportCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateViews drops every cached dashboard and report. Record writes
// shift the month aggregates, so everything computed from them is stale.
func (s *Server) invalidateViews() {
	s.dashboardCache.Clear()
	s.reportCache.Clear()
}

// Shutdown gracefully stops the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
