package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const defaultTicketPrefix = "WT"

// FormatTicketNumber renders a sequence value as e.g. WT-000042.
func FormatTicketNumber(prefix string, seq int64) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultTicketPrefix
	}
	return fmt.Sprintf("%s-%06d", prefix, seq)
}

// MemoryTicketNumberer counts up from zero within the process.
type MemoryTicketNumberer struct {
	prefix string
	seq    atomic.Int64
}

// NewMemoryTicketNumberer builds a process-local numberer.
func NewMemoryTicketNumberer(prefix string) *MemoryTicketNumberer {
	return &MemoryTicketNumberer{prefix: prefix}
}

func (n *MemoryTicketNumberer) Next(_ context.Context) (string, error) {
	return FormatTicketNumber(n.prefix, n.seq.Add(1)), nil
}

// RedisTicketNumberer uses INCR on a single key, shared by every replica.
type RedisTicketNumberer struct {
	client redis.Cmdable
	key    string
	prefix string
}

// NewRedisTicketNumberer builds a numberer backed by Redis.
func NewRedisTicketNumberer(client redis.Cmdable, prefix string) *RedisTicketNumberer {
	return &RedisTicketNumberer{client: client, key: "workticket:number_seq", prefix: prefix}
}

func (n *RedisTicketNumberer) Next(ctx context.Context) (string, error) {
	seq, err := n.client.Incr(ctx, n.key).Result()
	if err != nil {
		return "", fmt.Errorf("incr ticket sequence: %w", err)
	}
	return FormatTicketNumber(n.prefix, seq), nil
}

// PostgresTicketNumberer draws from the work_ticket_number_seq sequence.
type PostgresTicketNumberer struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewPostgresTicketNumberer builds a numberer backed by a Postgres sequence.
func NewPostgresTicketNumberer(pool *pgxpool.Pool, prefix string) *PostgresTicketNumberer {
	return &PostgresTicketNumberer{pool: pool, prefix: prefix}
}

func (n *PostgresTicketNumberer) Next(ctx context.Context) (string, error) {
	var seq int64
	if err := n.pool.QueryRow(ctx, `SELECT nextval('work_ticket_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next ticket sequence: %w", err)
	}
	return FormatTicketNumber(n.prefix, seq), nil
}
