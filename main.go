package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/mingli/holding-analyzer/backend/src/config"
	"github.com/mingli/holding-analyzer/backend/src/database"
	"github.com/mingli/holding-analyzer/backend/src/handlers"
	"github.com/mingli/holding-analyzer/backend/src/logger"
	_ "github.com/mingli/holding-analyzer/backend/src/parsers/cibc"
	_ "github.com/mingli/holding-analyzer/backend/src/parsers/rbc"
	_ "github.com/mingli/holding-analyzer/backend/src/parsers/td"
	"github.com/mingli/holding-analyzer/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
			"http://localhost:3000":    true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Holding analyzer backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	marketDataService := services.NewMarketDataService()
	performanceService := services.NewPerformanceService(marketDataService)
	ledgerService := services.NewLedgerService(performanceService)
	snapshotService := services.NewSnapshotService(marketDataService)

	portfolioHandler := handlers.NewPortfolioHandler(snapshotService, performanceService)
	txHandler := handlers.NewTransactionHandler(ledgerService)
	dividendHandler := handlers.NewDividendHandler(snapshotService)
	thesisHandler := handlers.NewThesisHandler()

	// Nightly history rebuild keeps the performance chart current without
	// blocking any request path.
	if spec := config.Cfg.HistoryRebuildSpec; spec != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(spec, func() {
			if err := performanceService.RebuildHistory(); err != nil {
				logger.L.Error("Scheduled history rebuild failed", "error", err)
			}
		}); err != nil {
			logger.L.Error("Invalid HISTORY_REBUILD_SPEC, scheduled rebuild disabled", "spec", spec, "error", err)
		} else {
			scheduler.Start()
			logger.L.Info("Scheduled history rebuild", "spec", spec)
		}
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Holding analyzer backend is running"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", portfolioHandler.HandleGetPortfolio)
		r.Get("/portfolio/realized", portfolioHandler.HandleGetRealized)
		r.Get("/portfolio/sectors", portfolioHandler.HandleGetSectorExposure)
		r.Get("/performance", portfolioHandler.HandleGetPerformance)
		r.Post("/performance/rebuild", portfolioHandler.HandleRebuildHistory)

		r.Get("/transactions", txHandler.HandleListTransactions)
		r.Post("/transactions", txHandler.HandleAddTransaction)
		r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)
		r.Post("/import", txHandler.HandleImportCSV)

		r.Get("/dividends", dividendHandler.HandleGetDividendProjection)

		r.Get("/thesis", thesisHandler.HandleListTheses)
		r.Post("/thesis", thesisHandler.HandleUpsertThesis)
		r.Put("/thesis/{symbol}", thesisHandler.HandleUpsertThesis)
		r.Delete("/thesis/{symbol}", thesisHandler.HandleDeleteThesis)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
