// Command tenantd is a small service that wires tenant context propagation
// end to end: HTTP requests enter a tenant scope, enqueue background tasks
// that keep that scope, and optionally reach PostgreSQL with the tenant
// applied to the transaction.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantscope/pkg/config"
	"github.com/dmitrymomot/tenantscope/pkg/httpserver"
	"github.com/dmitrymomot/tenantscope/pkg/logger"
	"github.com/dmitrymomot/tenantscope/pkg/pg"
	"github.com/dmitrymomot/tenantscope/pkg/queue"
	"github.com/dmitrymomot/tenantscope/pkg/requestid"
	"github.com/dmitrymomot/tenantscope/pkg/tenant"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

type appConfig struct {
	Logger logger.Config
	Tenant tenant.Config
	Scope  tenantctx.Config
	Queue  queue.Config
	HTTP   httpserver.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("tenantd exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loader := config.NewLoader()
	cfg, err := config.LoadInto[appConfig](loader)
	if err != nil {
		return err
	}

	base, err := logger.NewFromConfig(cfg.Logger)
	if err != nil {
		return err
	}
	store := tenantctx.NewStoreFromConfig(cfg.Scope, tenantctx.WithLogger(base))
	log := slog.New(logger.NewLogHandlerDecorator(base.Handler(),
		requestid.LoggerExtractor(),
		tenantctx.LoggerExtractor(store),
	))
	logger.SetAsDefault(log)

	var (
		sess    *pg.TenantSession
		pool    pg.TxBeginner
		setting string
		checks  []func(context.Context) error
	)
	if os.Getenv("PG_CONN_URL") != "" {
		var pgCfg pg.Config
		if err := loader.Load(&pgCfg); err != nil {
			return err
		}
		p, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer p.Close()
		if sess, err = pg.NewTenantSessionFromConfig(store, pgCfg); err != nil {
			return err
		}
		pool = p
		setting = pgCfg.TenantSetting
		checks = append(checks, pg.Healthcheck(p))
	}

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	enq, err := queue.NewEnqueuer(storage, queue.WithTenantEncoder(store))
	if err != nil {
		return err
	}
	worker, err := queue.NewWorkerFromConfig(storage, cfg.Queue,
		queue.WithTenantRestorer(store),
		queue.WithWorkerLogger(log.With(logger.Component("worker"))),
	)
	if err != nil {
		return err
	}
	worker.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, p sendInvoice) error {
		log.InfoContext(ctx, "sending invoice", slog.Int("number", p.Number))
		return nil
	}))

	a := &api{store: store, enq: enq, sess: sess, db: pool, setting: setting, checks: checks, log: log}
	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, a.routes(cfg.Tenant)) })
	g.Go(worker.Run(ctx))
	return g.Wait()
}

type sendInvoice struct {
	Number int `json:"number"`
}

type api struct {
	store   *tenantctx.Store
	enq     *queue.Enqueuer
	sess    *pg.TenantSession
	db      pg.TxBeginner
	setting string
	checks  []func(context.Context) error
	log     *slog.Logger
}

func (a *api) routes(cfg tenant.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(tenant.Middleware(a.store, tenant.NewResolverFromConfig(cfg),
		tenant.WithSkipPaths("/health"),
		tenant.WithLogger(a.log),
	))

	// Liveness without a database, readiness pinging it otherwise.
	r.Get("/health", httpserver.HealthCheckHandler(a.log, a.checks...))

	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant(a.store, nil))
		r.Get("/whoami", a.whoami)
		r.Post("/invoices", a.createInvoice)
		r.Get("/db/tenant", a.dbTenant)
	})
	return r
}

func (a *api) whoami(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Serialize(r.Context()))
}

func (a *api) createInvoice(w http.ResponseWriter, r *http.Request) {
	var p sendInvoice
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := a.enq.Enqueue(r.Context(), p); err != nil {
		a.log.ErrorContext(r.Context(), "enqueue failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// dbTenant reports the tenant PostgreSQL sees inside a scoped transaction.
func (a *api) dbTenant(w http.ResponseWriter, r *http.Request) {
	if a.sess == nil {
		http.Error(w, "database not configured", http.StatusNotImplemented)
		return
	}

	var setting string
	err := a.sess.InTx(r.Context(), a.db, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, "select current_setting($1, true)", a.setting).Scan(&setting)
	})
	switch {
	case errors.Is(err, tenantctx.ErrContextExpired):
		http.Error(w, "Tenant context expired", http.StatusUnauthorized)
	case err != nil:
		a.log.ErrorContext(r.Context(), "db query failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"tenant_id": setting})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
