package broker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
)

// Channel is the NOTIFY channel the monitors trigger writes to. The
// payload is the owner id.
const Channel = "monitor_changes"

// notificationSource is the part of *pgx.Conn the listener needs.
type notificationSource interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

type pgxSource struct {
	conn *pgx.Conn
}

func (s *pgxSource) Listen(ctx context.Context, channel string) error {
	_, err := s.conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	return err
}

func (s *pgxSource) WaitForNotification(ctx context.Context) (string, error) {
	n, err := s.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (s *pgxSource) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// connect is a test seam over pgx.Connect.
var connect = func(ctx context.Context, dsn string) (notificationSource, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgxSource{conn: conn}, nil
}

// Postgres relays NOTIFY messages from the database to a Local broker, so
// writes made through any server replica reach every replica's streams.
type Postgres struct {
	*Local
	dsn       string
	logger    logging.Logger
	backoff   func() retry.Backoff
	listening atomic.Bool
}

func NewPostgres(dsn string, l logging.Logger) *Postgres {
	return &Postgres{
		Local:  NewLocal(),
		dsn:    dsn,
		logger: l.With("module", "pg_broker"),
		backoff: func() retry.Backoff {
			return retry.WithCappedDuration(30*time.Second, retry.NewExponential(250*time.Millisecond))
		},
	}
}

// Run listens until ctx is done. A dropped connection is re-established
// with exponential backoff.
func (b *Postgres) Run(ctx context.Context) error {
	defer b.listening.Store(false)

	for {
		src, err := b.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		b.listening.Store(true)
		err = b.relay(ctx, src)
		b.listening.Store(false)
		_ = src.Close(context.Background())
		if ctx.Err() != nil {
			return nil
		}
		b.logger.Warn(ctx, "listener dropped, reconnecting", "error", err)
	}
}

// Publish does nothing while the listener is connected, since the trigger
// on every monitor write already NOTIFYs this replica too. Without a
// listener the signal goes straight to the local streams.
func (b *Postgres) Publish(ctx context.Context, owner string) {
	if b.listening.Load() {
		return
	}
	b.Local.Publish(ctx, owner)
}

func (b *Postgres) dial(ctx context.Context) (notificationSource, error) {
	var src notificationSource
	err := retry.Do(ctx, b.backoff(), func(ctx context.Context) error {
		s, err := connect(ctx, b.dsn)
		if err != nil {
			b.logger.Warn(ctx, "connect failed", "error", err)
			return retry.RetryableError(fmt.Errorf("connect: %w", err))
		}
		if err := s.Listen(ctx, Channel); err != nil {
			_ = s.Close(context.Background())
			return retry.RetryableError(fmt.Errorf("listen: %w", err))
		}
		src = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.Info(ctx, "listening for changes", "channel", Channel)
	return src, nil
}

func (b *Postgres) relay(ctx context.Context, src notificationSource) error {
	for {
		owner, err := src.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		b.Local.Publish(ctx, owner)
	}
}
