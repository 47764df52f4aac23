// Package session はRedisに発行済みAPIトークンを記録し、失効を管理します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound は記録のないトークンIDを指定した場合に返されます。
var ErrTokenNotFound = errors.New("token not found")

// TokenRecord は発行済みトークンのメタデータです。トークン本体は保存しません。
type TokenRecord struct {
	ID        string     `json:"id"`
	Subject   string     `json:"subject"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// IsValid は失効しておらず期限内かを返します。
func (r TokenRecord) IsValid(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// TokenStore はRedisによるトークン記録の実装です。
type TokenStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewTokenStore creates a new TokenStore instance.
func NewTokenStore(client *redis.Client, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenStore{client: client, prefix: prefix, now: time.Now}
}

func (s *TokenStore) tokenKey(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *TokenStore) subjectKey(subject string) string {
	return fmt.Sprintf("%s:subject:%s", s.prefix, subject)
}

// Record は発行したトークンを有効期限までのTTLで保存します。
func (s *TokenStore) Record(ctx context.Context, rec TokenRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("token %s already expired", rec.ID)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(rec.ID), data, ttl)
	pipe.SAdd(ctx, s.subjectKey(rec.Subject), rec.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Find はトークンIDの記録を返します。
func (s *TokenStore) Find(ctx context.Context, id string) (*TokenRecord, error) {
	data, err := s.client.Get(ctx, s.tokenKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}
	return &rec, nil
}

// IsRevoked は失効済みならtrueを返します。記録のないトークンは失効扱いにしません。
func (s *TokenStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	rec, err := s.Find(ctx, id)
	if errors.Is(err, ErrTokenNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.RevokedAt != nil, nil
}

// Revoke はトークンを失効させます。記録は元の有効期限まで残します。
func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if rec.RevokedAt != nil {
		return nil
	}
	now := s.now()
	rec.RevokedAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}
	return s.client.Set(ctx, s.tokenKey(id), data, redis.KeepTTL).Err()
}

// ListBySubject はsubjectに発行されたトークンを発行順に返します。期限切れのIDは集合から取り除きます。
func (s *TokenStore) ListBySubject(ctx context.Context, subject string) ([]TokenRecord, error) {
	ids, err := s.client.SMembers(ctx, s.subjectKey(subject)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]TokenRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Find(ctx, id)
		if errors.Is(err, ErrTokenNotFound) {
			// TTL切れ
			s.client.SRem(ctx, s.subjectKey(subject), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// RevokeAllBySubject はsubjectの有効なトークンをすべて失効させ、その件数を返します。
func (s *TokenStore) RevokeAllBySubject(ctx context.Context, subject string) (int, error) {
	recs, err := s.ListBySubject(ctx, subject)
	if err != nil {
		return 0, err
	}
	n := 0
	now := s.now()
	for _, rec := range recs {
		if !rec.IsValid(now) {
			continue
		}
		if err := s.Revoke(ctx, rec.ID); err != nil && !errors.Is(err, ErrTokenNotFound) {
			return n, err
		}
		n++
	}
	return n, nil
}
