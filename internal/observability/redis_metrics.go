package observability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RedisMetricsHook is a go-redis hook that records command latency,
// keyspace hit/miss counts and classified error totals.
type RedisMetricsHook struct {
	commandDuration metric.Float64Histogram
	keyspaceHits    metric.Int64Counter
	keyspaceMisses  metric.Int64Counter
	commandErrors   metric.Int64Counter
}

func NewRedisMetricsHook(provider metric.MeterProvider) (*RedisMetricsHook, error) {
	meter := provider.Meter("animalia/redis")

	duration, err := meter.Float64Histogram("redis.command.duration",
		metric.WithUnit("s"), metric.WithDescription("Redis command latency"))
	if err != nil {
		return nil, err
	}
	hits, err := meter.Int64Counter("redis.keyspace.hits",
		metric.WithDescription("Redis read commands that found the key"))
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("redis.keyspace.misses",
		metric.WithDescription("Redis read commands that missed the key"))
	if err != nil {
		return nil, err
	}
	cmdErrors, err := meter.Int64Counter("redis.command.errors",
		metric.WithDescription("Redis command failures by class"))
	if err != nil {
		return nil, err
	}

	return &RedisMetricsHook{
		commandDuration: duration,
		keyspaceHits:    hits,
		keyspaceMisses:  misses,
		commandErrors:   cmdErrors,
	}, nil
}

func (h *RedisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.commandErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("command", "dial"),
				attribute.String("class", classifyRedisError(err))))
		}
		return conn, err
	}
}

func (h *RedisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, cmd, time.Since(start))
		return err
	}
}

func (h *RedisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)
		for _, cmd := range cmds {
			h.record(ctx, cmd, elapsed)
		}
		return err
	}
}

func (h *RedisMetricsHook) record(ctx context.Context, cmd redis.Cmder, elapsed time.Duration) {
	name := cmd.Name()
	h.commandDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("command", name)))

	if hits, misses, ok := classifyKeyspaceOutcome(cmd); ok {
		if hits > 0 {
			h.keyspaceHits.Add(ctx, int64(hits), metric.WithAttributes(attribute.String("command", name)))
		}
		if misses > 0 {
			h.keyspaceMisses.Add(ctx, int64(misses), metric.WithAttributes(attribute.String("command", name)))
		}
	}

	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		h.commandErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("class", classifyRedisError(err))))
	}
}

// classifyKeyspaceOutcome reports hit and miss counts for read commands.
// ok is false for commands that have no hit/miss semantics.
func classifyKeyspaceOutcome(cmd redis.Cmder) (hits, misses int, ok bool) {
	switch c := cmd.(type) {
	case *redis.StringCmd:
		if cmd.Name() != "get" {
			return 0, 0, false
		}
		if errors.Is(c.Err(), redis.Nil) {
			return 0, 1, true
		}
		if c.Err() == nil {
			return 1, 0, true
		}
		return 0, 0, false
	case *redis.SliceCmd:
		if cmd.Name() != "mget" || c.Err() != nil {
			return 0, 0, false
		}
		for _, v := range c.Val() {
			if v == nil {
				misses++
			} else {
				hits++
			}
		}
		return hits, misses, true
	default:
		return 0, 0, false
	}
}

func classifyRedisError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "refused") || strings.Contains(msg, "reset"):
		return "connection"
	default:
		return "other"
	}
}
