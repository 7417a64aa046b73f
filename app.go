package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Bindu232003/expense-tracker-api/api"
	"github.com/Bindu232003/expense-tracker-api/balance"
	"github.com/Bindu232003/expense-tracker-api/config"
	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/Bindu232003/expense-tracker-api/eventlogger"
	"github.com/Bindu232003/expense-tracker-api/ledger"
	"github.com/Bindu232003/expense-tracker-api/report"
	"github.com/Bindu232003/expense-tracker-api/tracker"
	chimiddleware "github.com/go-chi/chi/middleware"
)

type app struct {
	cfg      *config.Config
	db       *sql.DB
	ledger   *ledger.Ledger
	register *balance.Register
	views    *report.Views
	tracker  *tracker.Coordinator
	events   eventlogger.EventLogger
	worker   *eventlogger.Worker
}

// newApp wires the stores selected by cfg and starts the audit event worker.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var (
		expenseStore ledger.Store
		balanceStore balance.Store
		tx           tracker.Transactor
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		expenseStore = ledger.NewMemoryStore()
		balanceStore = balance.NewMemoryStore()
		tx = database.NewMemoryTransactor()
		a.events = eventlogger.NewMemoryEventLogger()
	default:
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = db
		expenseStore = ledger.NewRepository(db)
		balanceStore = balance.NewRepository(db)
		tx = database.NewTransactor(db)
		a.events = eventlogger.NewSqlEventLogger(db)
	}

	a.worker = eventlogger.NewWorker(a.events, cfg.EventBufferSize)
	a.worker.Start()

	a.ledger = ledger.New(expenseStore)
	a.register = balance.NewRegister(balanceStore, balance.WithAbsentPolicy(cfg.AbsentPolicy()))
	a.views = report.New(a.ledger)
	a.tracker = tracker.New(a.ledger, a.register,
		tracker.WithTransactor(tx),
		tracker.WithPublisher(a.worker),
		tracker.WithEventMetadata(requestMetadata),
	)

	slog.Info("store ready", "backend", cfg.StoreBackend)
	return a, nil
}

func (a *app) router() http.Handler {
	return api.NewRouter(api.Deps{
		Tracker:        a.tracker,
		Ledger:         a.ledger,
		Register:       a.register,
		Views:          a.views,
		Ready:          a.ping,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
	})
}

func (a *app) ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext(ctx)
}

// Close drains pending audit events before releasing the database.
func (a *app) Close() {
	a.worker.Shutdown()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}

func requestMetadata(ctx context.Context) map[string]string {
	metadata := map[string]string{"pid": fmt.Sprint(os.Getpid())}
	if id := chimiddleware.GetReqID(ctx); id != "" {
		metadata["request_id"] = id
	}
	return metadata
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
