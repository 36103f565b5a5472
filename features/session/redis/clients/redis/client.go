// Package redis implements the low-level Redis client backing the
// session.Store and session.MemoryStore adapters.
package redis

//go:generate cmg gen .

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"goa.design/clue/health"

	"github.com/agentcore/runtime/runtime/agent/session"
)

const (
	defaultKeyPrefix = "agentcore:"
	defaultTimeout   = 5 * time.Second
	clientName       = "session-redis"
)

type (
	// Options configures the Redis client implementation.
	Options struct {
		// Redis is the Redis connection used to back session storage. Required.
		Redis *goredis.Client
		// KeyPrefix namespaces every key this client writes. Defaults to
		// "agentcore:" when empty.
		KeyPrefix string
		// Timeout bounds individual Redis operations. Zero uses defaultTimeout.
		Timeout time.Duration
	}

	// Client exposes Redis-backed operations for session lifecycle, run
	// metadata, and session permission-memory, satisfying both
	// session.Store and session.MemoryStore.
	Client interface {
		health.Pinger

		CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error)
		LoadSession(ctx context.Context, sessionID string) (session.Session, error)
		EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error)

		UpsertRun(ctx context.Context, run session.RunMeta) error
		LoadRun(ctx context.Context, turnID string) (session.RunMeta, error)
		ListRunsBySession(ctx context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error)

		LoadMemorySnapshot(ctx context.Context, sessionID string) (session.MemorySnapshot, error)
		SaveMemorySnapshot(ctx context.Context, snap session.MemorySnapshot) error
	}

	// cmdable is the narrow slice of Redis commands this client needs,
	// letting tests substitute a hand-rolled fake instead of a live server
	// (mirroring the collection abstraction used by the mongo-backed
	// adapters, since go-redis does not itself ship a test double).
	cmdable interface {
		ping(ctx context.Context) error
		hSetNX(ctx context.Context, key, field string, value any) (bool, error)
		hSet(ctx context.Context, key string, values map[string]any) error
		hGetAll(ctx context.Context, key string) (map[string]string, error)
		sAdd(ctx context.Context, key string, members ...string) error
		sMembers(ctx context.Context, key string) ([]string, error)
	}

	client struct {
		cmd    cmdable
		prefix string
	}
)

// New constructs a Client backed by the provided Redis connection. Returns an
// error if opts.Redis is nil.
func New(opts Options) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{cmd: &goredisCmdable{redis: opts.Redis, timeout: timeout}, prefix: prefix}, nil
}

func (c *client) Name() string { return clientName }

func (c *client) Ping(ctx context.Context) error {
	return c.cmd.ping(ctx)
}

func (c *client) sessionKey(sessionID string) string { return c.prefix + "session:" + sessionID }
func (c *client) runKey(turnID string) string        { return c.prefix + "run:" + turnID }
func (c *client) sessionRunsKey(sessionID string) string {
	return c.prefix + "session:" + sessionID + ":runs"
}
func (c *client) memoryKey(sessionID string) string { return c.prefix + "memory:" + sessionID }

// CreateSession implements Client.
func (c *client) CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("session id is required")
	}
	key := c.sessionKey(sessionID)
	now := time.Now().UTC()
	created, err := c.cmd.hSetNX(ctx, key, "status", string(session.StatusActive))
	if err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}
	if created {
		fields := map[string]any{
			"session_id": sessionID,
			"created_at": createdAt.UTC().Format(time.RFC3339Nano),
			"updated_at": now.Format(time.RFC3339Nano),
		}
		if err := c.cmd.hSet(ctx, key, fields); err != nil {
			return session.Session{}, fmt.Errorf("create session: %w", err)
		}
	}
	out, err := c.LoadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if out.Status == session.StatusEnded {
		return session.Session{}, session.ErrSessionEnded
	}
	return out, nil
}

// LoadSession implements Client.
func (c *client) LoadSession(ctx context.Context, sessionID string) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("session id is required")
	}
	fields, err := c.cmd.hGetAll(ctx, c.sessionKey(sessionID))
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 {
		return session.Session{}, session.ErrSessionNotFound
	}
	out := session.Session{ID: sessionID, Status: session.SessionStatus(fields["status"])}
	if v := fields["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			out.CreatedAt = t
		}
	}
	if v := fields["ended_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			out.EndedAt = &t
		}
	}
	return out, nil
}

// EndSession implements Client.
func (c *client) EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	existing, err := c.LoadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if existing.Status == session.StatusEnded {
		return existing, nil
	}
	key := c.sessionKey(sessionID)
	fields := map[string]any{
		"status":     string(session.StatusEnded),
		"ended_at":   endedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.cmd.hSet(ctx, key, fields); err != nil {
		return session.Session{}, fmt.Errorf("end session: %w", err)
	}
	return c.LoadSession(ctx, sessionID)
}

// UpsertRun implements Client.
func (c *client) UpsertRun(ctx context.Context, run session.RunMeta) error {
	if run.TurnID == "" {
		return errors.New("turn id is required")
	}
	if run.SessionID == "" {
		return errors.New("session id is required")
	}
	now := time.Now().UTC()
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	key := c.runKey(run.TurnID)
	if _, err := c.cmd.hSetNX(ctx, key, "started_at", startedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	labelsJSON, err := json.Marshal(run.Labels)
	if err != nil {
		return fmt.Errorf("upsert run: marshal labels: %w", err)
	}
	metadataJSON, err := json.Marshal(run.Metadata)
	if err != nil {
		return fmt.Errorf("upsert run: marshal metadata: %w", err)
	}
	fields := map[string]any{
		"turn_id":    run.TurnID,
		"session_id": run.SessionID,
		"status":     string(run.Status),
		"updated_at": now.Format(time.RFC3339Nano),
		"labels":     string(labelsJSON),
		"metadata":   string(metadataJSON),
	}
	if err := c.cmd.hSet(ctx, key, fields); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	if err := c.cmd.sAdd(ctx, c.sessionRunsKey(run.SessionID), run.TurnID); err != nil {
		return fmt.Errorf("upsert run: index by session: %w", err)
	}
	return nil
}

// LoadRun implements Client.
func (c *client) LoadRun(ctx context.Context, turnID string) (session.RunMeta, error) {
	if turnID == "" {
		return session.RunMeta{}, errors.New("turn id is required")
	}
	fields, err := c.cmd.hGetAll(ctx, c.runKey(turnID))
	if err != nil {
		return session.RunMeta{}, fmt.Errorf("load run: %w", err)
	}
	if len(fields) == 0 {
		return session.RunMeta{}, session.ErrRunNotFound
	}
	return runMetaFromFields(fields)
}

// ListRunsBySession implements Client.
func (c *client) ListRunsBySession(ctx context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	turnIDs, err := c.cmd.sMembers(ctx, c.sessionRunsKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list runs by session: %w", err)
	}
	allowed := make(map[session.RunStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	out := make([]session.RunMeta, 0, len(turnIDs))
	for _, turnID := range turnIDs {
		fields, err := c.cmd.hGetAll(ctx, c.runKey(turnID))
		if err != nil {
			return nil, fmt.Errorf("list runs by session: %w", err)
		}
		if len(fields) == 0 {
			continue
		}
		run, err := runMetaFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("list runs by session: %w", err)
		}
		if len(allowed) > 0 {
			if _, ok := allowed[run.Status]; !ok {
				continue
			}
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func runMetaFromFields(fields map[string]string) (session.RunMeta, error) {
	run := session.RunMeta{
		TurnID:    fields["turn_id"],
		SessionID: fields["session_id"],
		Status:    session.RunStatus(fields["status"]),
	}
	if v := fields["started_at"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return session.RunMeta{}, fmt.Errorf("parse started_at: %w", err)
		}
		run.StartedAt = t
	}
	if v := fields["updated_at"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return session.RunMeta{}, fmt.Errorf("parse updated_at: %w", err)
		}
		run.UpdatedAt = t
	}
	if v := fields["labels"]; v != "" {
		if err := json.Unmarshal([]byte(v), &run.Labels); err != nil {
			return session.RunMeta{}, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	if v := fields["metadata"]; v != "" {
		if err := json.Unmarshal([]byte(v), &run.Metadata); err != nil {
			return session.RunMeta{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return run, nil
}

// LoadMemorySnapshot implements Client.
func (c *client) LoadMemorySnapshot(ctx context.Context, sessionID string) (session.MemorySnapshot, error) {
	if sessionID == "" {
		return session.MemorySnapshot{}, errors.New("session id is required")
	}
	fields, err := c.cmd.hGetAll(ctx, c.memoryKey(sessionID))
	if err != nil {
		return session.MemorySnapshot{}, fmt.Errorf("load memory snapshot: %w", err)
	}
	if len(fields) == 0 {
		return session.MemorySnapshot{SessionID: sessionID}, nil
	}
	snap := session.MemorySnapshot{SessionID: sessionID}
	if v := fields["always_allowed"]; v != "" {
		if err := json.Unmarshal([]byte(v), &snap.AlwaysAllowed); err != nil {
			return session.MemorySnapshot{}, fmt.Errorf("unmarshal always_allowed: %w", err)
		}
	}
	if v := fields["blocked"]; v != "" {
		if err := json.Unmarshal([]byte(v), &snap.Blocked); err != nil {
			return session.MemorySnapshot{}, fmt.Errorf("unmarshal blocked: %w", err)
		}
	}
	if v := fields["updated_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			snap.UpdatedAt = t
		}
	}
	return snap, nil
}

// SaveMemorySnapshot implements Client.
func (c *client) SaveMemorySnapshot(ctx context.Context, snap session.MemorySnapshot) error {
	if snap.SessionID == "" {
		return errors.New("session id is required")
	}
	alwaysAllowedJSON, err := json.Marshal(snap.AlwaysAllowed)
	if err != nil {
		return fmt.Errorf("save memory snapshot: marshal always_allowed: %w", err)
	}
	blockedJSON, err := json.Marshal(snap.Blocked)
	if err != nil {
		return fmt.Errorf("save memory snapshot: marshal blocked: %w", err)
	}
	fields := map[string]any{
		"session_id":     snap.SessionID,
		"always_allowed": string(alwaysAllowedJSON),
		"blocked":        string(blockedJSON),
		"updated_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.cmd.hSet(ctx, c.memoryKey(snap.SessionID), fields); err != nil {
		return fmt.Errorf("save memory snapshot: %w", err)
	}
	return nil
}

// goredisCmdable implements cmdable against a live *redis.Client.
type goredisCmdable struct {
	redis   *goredis.Client
	timeout time.Duration
}

func (g *goredisCmdable) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *goredisCmdable) ping(ctx context.Context) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	return g.redis.Ping(ctx).Err()
}

func (g *goredisCmdable) hSetNX(ctx context.Context, key, field string, value any) (bool, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	return g.redis.HSetNX(ctx, key, field, value).Result()
}

func (g *goredisCmdable) hSet(ctx context.Context, key string, values map[string]any) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	return g.redis.HSet(ctx, key, values).Err()
}

func (g *goredisCmdable) hGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	return g.redis.HGetAll(ctx, key).Result()
}

func (g *goredisCmdable) sAdd(ctx context.Context, key string, members ...string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	vals := make([]any, len(members))
	for i, m := range members {
		vals[i] = m
	}
	return g.redis.SAdd(ctx, key, vals...).Err()
}

func (g *goredisCmdable) sMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	return g.redis.SMembers(ctx, key).Result()
}
