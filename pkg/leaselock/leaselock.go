// Package leaselock provides expiring locks kept in the app_locks table of a
// SQL database. A held lease is renewed in the background until it is
// released; when renewal fails the lease context is canceled with ErrLost.
//
// The statements only use portable upsert syntax, so the same client runs on
// Postgres and SQLite.
package leaselock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

const (
	defaultTTL          = 5 * time.Minute
	defaultPollInterval = 250 * time.Millisecond
	renewAttempts       = 3
	renewTimeout        = 15 * time.Second
)

type Client struct {
	db  *sql.DB
	now func() time.Time

	mu    sync.Mutex
	ready bool
}

// Options controls a single Acquire. Without Wait a held key fails fast with
// ErrBusy, with Wait the key is polled until it frees up or ctx ends.
type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	PollInterval time.Duration
	PollJitter   time.Duration

	// Owner is recorded with the token and reported by Holder.
	Owner string
}

func (o Options) normalized() Options {
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
	if o.TTL < time.Millisecond {
		o.TTL = time.Millisecond
	}
	if o.RenewEvery <= 0 || o.RenewEvery >= o.TTL {
		o.RenewEvery = o.TTL / 2
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	o.PollJitter = max(o.PollJitter, 0)
	return o
}

// Holder describes the current owner of a key.
type Holder struct {
	Owner     string
	Token     string
	ExpiresAt time.Time
}

type Lease struct {
	Key   string
	Token string

	client *Client
	ttl    time.Duration
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	once   sync.Once
}

func New(db *sql.DB) *Client {
	return &Client{db: db, now: time.Now}
}

// Context is canceled once the lease is released or lost.
func (l *Lease) Context() context.Context {
	return l.ctx
}

// WithLease runs fn while holding key and always releases the lease
// afterwards.
func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer lease.Release(context.WithoutCancel(ctx))

	if err := fn(lease.Context()); err != nil {
		return err
	}
	if cause := context.Cause(lease.Context()); errors.Is(cause, ErrLost) {
		return ErrLost
	}
	return nil
}

func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	opts = opts.normalized()

	if err := c.ensureTable(ctx); err != nil {
		return nil, err
	}

	token, err := newToken(opts.Owner)
	if err != nil {
		return nil, err
	}

	for {
		ok, err := c.tryAcquire(ctx, key, token, opts.TTL)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := pause(ctx, opts.PollInterval, opts.PollJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:    key,
		Token:  token,
		client: c,
		ttl:    opts.TTL,
		ctx:    leaseCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.keepAlive(opts.RenewEvery)

	return l, nil
}

// Holder reports who holds key. ok is false when the key is free or its
// lease has expired.
func (c *Client) Holder(ctx context.Context, key string) (Holder, bool, error) {
	if err := c.ensureTable(ctx); err != nil {
		return Holder{}, false, err
	}

	var (
		token   string
		expires int64
	)
	err := c.db.QueryRowContext(ctx, holderSQL, key).Scan(&token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Holder{}, false, nil
	}
	if err != nil {
		return Holder{}, false, fmt.Errorf("failed to read lock %s: %w", key, err)
	}

	h := Holder{Token: token, ExpiresAt: time.UnixMilli(expires)}
	if owner, _, found := strings.Cut(token, ":"); found {
		h.Owner = owner
	}
	return h, h.ExpiresAt.After(c.now()), nil
}

func (l *Lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		close(l.done)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.ExecContext(ctx, releaseSQL, l.Key, l.Token)
	return err
}

func (l *Lease) keepAlive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			if err := l.renew(); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

// renew extends the lease. Transient errors are retried a few times, a
// missing row means another holder took over.
func (l *Lease) renew() error {
	var err error
	for attempt := 1; attempt <= renewAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(l.ctx, renewTimeout)
		var got string
		expires := l.client.now().Add(l.ttl).UnixMilli()
		err = l.client.db.QueryRowContext(ctx, renewSQL, l.Key, l.Token, expires).Scan(&got)
		cancel()

		switch {
		case err == nil:
			return nil
		case errors.Is(err, sql.ErrNoRows):
			return ErrLost
		case attempt < renewAttempts:
			if perr := pause(l.ctx, 200*time.Millisecond, 0); perr != nil {
				return perr
			}
		}
	}
	return err
}

func (c *Client) tryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	now := c.now()
	var got string
	err := c.db.QueryRowContext(ctx, tryAcquireSQL, key, token, now.Add(ttl).UnixMilli(), now.UnixMilli()).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return got == key, nil
}

func (c *Client) ensureTable(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	if _, err := c.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create lock table: %w", err)
	}
	c.ready = true
	return nil
}

func newToken(owner string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if owner == "" {
		owner = "anonymous"
	}
	return strings.ReplaceAll(owner, ":", "_") + ":" + id, nil
}

func pause(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += rand.N(jitter + 1)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Expiry values are unix milliseconds computed by the client.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS app_locks (
    lock_key   TEXT PRIMARY KEY,
    locked_by  TEXT NOT NULL,
    expires_at BIGINT NOT NULL
)`

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (lock_key) DO UPDATE
SET locked_by = excluded.locked_by, expires_at = excluded.expires_at
WHERE app_locks.expires_at < $4 OR app_locks.locked_by = excluded.locked_by
RETURNING lock_key`

const renewSQL = `
UPDATE app_locks SET expires_at = $3
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key`

const holderSQL = `SELECT locked_by, expires_at FROM app_locks WHERE lock_key = $1`

const releaseSQL = `DELETE FROM app_locks WHERE lock_key = $1 AND locked_by = $2`
