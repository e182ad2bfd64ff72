// Package pgstore keeps portal keys in a Postgres table and fans changes out
// with LISTEN/NOTIFY.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/pkg/kvstore"
)

const (
	// DefaultTable stores one row per key.
	DefaultTable = "portal_kv"
	// DefaultChannel is the NOTIFY channel carrying changed keys.
	DefaultChannel = "portal_kv_changed"

	retryDelay = time.Second
)

// Config configures the store.
type Config struct {
	Pool    *pgxpool.Pool
	Table   string
	Channel string
	Logger  *zap.Logger
}

// Connect opens a pool for the given URL.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse url: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Store is a Postgres-backed portal.KVStore.
type Store struct {
	pool    *pgxpool.Pool
	table   string
	channel string
	logger  *zap.Logger
	subs    kvstore.Subscribers

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var _ portal.KVStore = (*Store)(nil)

// Open creates the table when missing and starts listening for changes.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Pool == nil {
		return nil, errors.New("pgstore: pool is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Store{
		pool:    cfg.Pool,
		table:   pgx.Identifier{cfg.Table}.Sanitize(),
		channel: cfg.Channel,
		logger:  cfg.Logger,
		done:    make(chan struct{}),
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("pgstore: create table: %w", err)
	}
	conn, err := s.listenConn(ctx)
	if err != nil {
		return nil, err
	}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.listen(listenCtx, conn)
	return s, nil
}

// Get returns the stored value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pgstore: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value and notifies listeners when the row changed.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %[1]s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
WHERE %[1]s.value IS DISTINCT FROM EXCLUDED.value`, s.table)
	tag, err := s.pool.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("pgstore: set %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return s.notify(ctx, key)
}

// Delete removes key and notifies listeners when it existed.
func (s *Store) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table), key)
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return s.notify(ctx, key)
}

// Subscribe registers fn for changes to key from any instance.
func (s *Store) Subscribe(key string, fn func()) func() {
	return s.subs.Add(key, fn)
}

// Close stops the listener. The pool belongs to the caller.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

func (s *Store) notify(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, key); err != nil {
		return fmt.Errorf("pgstore: notify %s: %w", key, err)
	}
	return nil
}

func (s *Store) listenConn(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgstore: acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("pgstore: listen %s: %w", s.channel, err)
	}
	return conn, nil
}

func (s *Store) listen(ctx context.Context, conn *pgxpool.Conn) {
	defer close(s.done)
	for {
		note, err := conn.Conn().WaitForNotification(ctx)
		if err == nil {
			s.subs.Notify(note.Payload)
			continue
		}
		// The connection is unusable after a failed wait.
		conn.Hijack().Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("pgstore listener lost connection", zap.Error(err))
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			conn, err = s.listenConn(ctx)
			if err == nil {
				break
			}
			s.logger.Warn("pgstore listener reconnect failed", zap.Error(err))
		}
	}
}
