package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "interview"

// sessionHash is the flat representation of a Session stored in a redis hash.
type sessionHash struct {
	ID          string `mapstructure:"id"`
	Major       string `mapstructure:"major"`
	Position    string `mapstructure:"position"`
	Questions   string `mapstructure:"questions"`
	UsedTitles  string `mapstructure:"used_titles"`
	CreatedAt   string `mapstructure:"created_at"`
	CompletedAt string `mapstructure:"completed_at"`
}

// Redis keeps session metadata in a hash per session, responses in a list and
// a sorted set of session ids ordered by creation time.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithPrefix sets the key prefix. Empty keeps the default.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL expires sessions and their responses after ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	store := &Redis{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (r *Redis) SaveSession(ctx context.Context, s *Session) error {
	if err := validateSession(s); err != nil {
		return err
	}

	fields, err := encodeSession(s)
	if err != nil {
		return err
	}

	key := r.sessionKey(s.ID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(s.CreatedAt.UnixNano()), Member: s.ID})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, r.responsesKey(s.ID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (r *Redis) GetSession(ctx context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, ErrNotFound
	}

	fields, err := r.client.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeSession(fields)
}

func (r *Redis) ListSessions(ctx context.Context) ([]Session, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange failed: %w", err)
	}

	sessions := make([]Session, 0, len(ids))
	var expired []any
	for _, id := range ids {
		s, err := r.GetSession(ctx, id)
		if errors.Is(err, ErrNotFound) {
			expired = append(expired, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	if len(expired) > 0 {
		if err := r.client.ZRem(ctx, r.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("redis zrem failed: %w", err)
		}
	}

	sortNewestFirst(sessions)
	return sessions, nil
}

func (r *Redis) AddResponse(ctx context.Context, resp *Response) error {
	if err := validateResponse(resp); err != nil {
		return err
	}

	exists, err := r.client.Exists(ctx, r.sessionKey(resp.SessionID)).Result()
	if err != nil {
		return fmt.Errorf("redis exists failed: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	key := r.responsesKey(resp.SessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (r *Redis) ListResponses(ctx context.Context, sessionID string) ([]Response, error) {
	if err := validateID(sessionID); err != nil {
		return nil, ErrNotFound
	}

	exists, err := r.client.Exists(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis exists failed: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	items, err := r.client.LRange(ctx, r.responsesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	responses := make([]Response, 0, len(items))
	for _, item := range items {
		var resp Response
		if err := json.Unmarshal([]byte(item), &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *Redis) responsesKey(id string) string {
	return fmt.Sprintf("%s:session:%s:responses", r.prefix, id)
}

func (r *Redis) indexKey() string {
	return r.prefix + ":sessions"
}

func encodeSession(s *Session) (map[string]any, error) {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	used, err := json.Marshal(s.UsedTitles)
	if err != nil {
		return nil, fmt.Errorf("marshal used titles: %w", err)
	}

	h := sessionHash{
		ID:         s.ID,
		Major:      s.Major,
		Position:   s.Position,
		Questions:  string(questions),
		UsedTitles: string(used),
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.CompletedAt != nil {
		h.CompletedAt = s.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	fields := map[string]any{}
	if err := mapstructure.Decode(h, &fields); err != nil {
		return nil, fmt.Errorf("encoding session hash: %w", err)
	}
	return fields, nil
}

func decodeSession(fields map[string]string) (*Session, error) {
	var h sessionHash
	if err := mapstructure.Decode(fields, &h); err != nil {
		return nil, fmt.Errorf("decoding session hash: %w", err)
	}

	s := &Session{ID: h.ID, Major: h.Major, Position: h.Position}
	if err := json.Unmarshal([]byte(h.Questions), &s.Questions); err != nil {
		return nil, fmt.Errorf("parsing questions: %w", err)
	}
	if err := json.Unmarshal([]byte(h.UsedTitles), &s.UsedTitles); err != nil {
		return nil, fmt.Errorf("parsing used titles: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.CreatedAt = created

	if h.CompletedAt != "" {
		completed, err := time.Parse(time.RFC3339Nano, h.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		s.CompletedAt = &completed
	}
	return s, nil
}
