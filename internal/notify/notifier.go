// Package notify delivers live-change signals for the catalog. It listens
// on a Postgres notification channel fired by a row trigger and invokes a
// refresh callback whenever the effective owner's rows change. The payload
// carries only the owner id; subscribers re-pull data instead of applying
// deltas.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mbx/modelbox/internal/logging"
)

// channelName is raised by the models table trigger with the changed row's
// created_by as payload.
const channelName = "model_changes"

// reconnectDelay spaces out reconnect attempts after a broken listen
// connection.
const reconnectDelay = 5 * time.Second

type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

var connect = func(ctx context.Context, dsn string) (listenConn, error) {
	return pgx.Connect(ctx, dsn)
}

// Notifier holds at most one active subscription, scoped to one owner.
type Notifier struct {
	dsn      string
	logger   logging.Logger
	onChange func()

	mu     sync.Mutex
	cancel context.CancelFunc
	owner  string
}

// NewNotifier prepares a notifier. onChange is invoked from the listening
// goroutine on every matching event and must be safe to call concurrently.
func NewNotifier(dsn string, onChange func(), logger logging.Logger) *Notifier {
	return &Notifier{dsn: dsn, onChange: onChange, logger: logger}
}

// Subscribe replaces the current subscription with one scoped to ownerID.
// An empty ownerID just stops listening. Safe to call on every owner
// change; the previous listener is always torn down first.
func (n *Notifier) Subscribe(ctx context.Context, ownerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.owner = ownerID
	if ownerID == "" {
		return
	}

	listenCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	go n.listen(listenCtx, ownerID)
}

// Stop tears down the current subscription, if any.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.owner = ""
}

// Owner returns the owner id of the current subscription, or "".
func (n *Notifier) Owner() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owner
}

func (n *Notifier) listen(ctx context.Context, ownerID string) {
	for {
		if err := n.listenOnce(ctx, ownerID); err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn(ctx, "listen connection lost, reconnecting", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (n *Notifier) listenOnce(ctx context.Context, ownerID string) error {
	conn, err := connect(ctx, n.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "listen "+channelName); err != nil {
		return err
	}
	n.logger.Info(ctx, "listening for catalog changes", "owner", ownerID)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if matches(notification, ownerID) {
			n.onChange()
		}
	}
}

// matches reports whether a notification concerns the subscribed owner.
// Payload-free notifications pass through so a trigger without payload
// still refreshes.
func matches(notification *pgconn.Notification, ownerID string) bool {
	if notification == nil {
		return false
	}
	return notification.Payload == "" || notification.Payload == ownerID
}
