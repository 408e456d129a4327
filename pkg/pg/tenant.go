package pg

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

// DefaultTenantSetting is the session setting used when none is configured.
const DefaultTenantSetting = "app.tenant_id"

// Custom settings must be qualified with a prefix, e.g. "app.tenant_id".
var settingName = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*$`)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TenantSession copies the current tenant into a PostgreSQL session setting
// so row-level security policies can filter on it with
// current_setting('app.tenant_id').
type TenantSession struct {
	store   *tenantctx.Store
	setting string
}

// NewTenantSession returns a TenantSession that reads tenants from store.
// An empty setting selects DefaultTenantSetting.
func NewTenantSession(store *tenantctx.Store, setting string) (*TenantSession, error) {
	if setting == "" {
		setting = DefaultTenantSetting
	}
	if !settingName.MatchString(setting) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenantSetting, setting)
	}
	return &TenantSession{store: store, setting: setting}, nil
}

// NewTenantSessionFromConfig is NewTenantSession with cfg.TenantSetting.
func NewTenantSessionFromConfig(store *tenantctx.Store, cfg Config) (*TenantSession, error) {
	return NewTenantSession(store, cfg.TenantSetting)
}

// Apply sets the tenant setting on db for the rest of the current
// transaction. Outside a transaction the setting lasts for a single statement,
// so Apply is meant to be called on a pgx.Tx.
//
// The frame current in ctx must exist and be unexpired. A frame whose tenant
// was cleared sets the setting to an empty string, which matches no tenant.
func (s *TenantSession) Apply(ctx context.Context, db Execer) error {
	f, err := s.store.Frame(ctx)
	if err != nil {
		return err
	}
	id, _ := f.TenantID()

	if _, err := db.Exec(ctx, "select set_config($1, $2, true)", s.setting, id); err != nil {
		return errors.Join(ErrFailedToApplyTenant, err)
	}
	return nil
}

// InTx begins a transaction on db, applies the current tenant, and runs fn.
// The transaction commits if fn returns nil and rolls back otherwise,
// including when fn panics.
func (s *TenantSession) InTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	// Check before opening a transaction that would only be rolled back.
	if _, err := s.store.Frame(ctx); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op returning ErrTxClosed. Deferring it
	// unconditionally also releases the connection when fn panics.
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !IsTxClosedError(rbErr) && err != nil {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = s.Apply(ctx, tx); err != nil {
		return err
	}
	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
