package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// RedisPersister stores one browser session under <prefix>:<sid>:token
// (sealed) and <prefix>:<sid>:user (JSON).  Every write refreshes the TTL.
type RedisPersister struct {
	rdb    *redis.Client
	sealer *Sealer
	ttl    time.Duration
	key    string
}

func NewRedisPersister(rdb *redis.Client, sealer *Sealer, prefix, sid string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{rdb: rdb, sealer: sealer, ttl: ttl, key: prefix + ":" + sid}
}

func (p *RedisPersister) tokenKey() string { return p.key + ":token" }
func (p *RedisPersister) userKey() string  { return p.key + ":user" }

// Load returns an empty Record when nothing is stored.  A token that does
// not unseal is reported as ErrUnsealable.
func (p *RedisPersister) Load(ctx context.Context) (Record, error) {
	vals, err := p.rdb.MGet(ctx, p.tokenKey(), p.userKey()).Result()
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if sealed, ok := vals[0].(string); ok && sealed != "" {
		tok, err := p.sealer.Open(sealed)
		if err != nil {
			return Record{}, err
		}
		rec.Token = tok
	}
	if raw, ok := vals[1].(string); ok && raw != "" {
		var id model.Identity
		if err := json.Unmarshal([]byte(raw), &id); err == nil {
			rec.User = &id
		}
	}
	return rec, nil
}

func (p *RedisPersister) SaveToken(ctx context.Context, token string) error {
	sealed, err := p.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	return p.rdb.Set(ctx, p.tokenKey(), sealed, p.ttl).Err()
}

func (p *RedisPersister) SaveIdentity(ctx context.Context, id model.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, p.userKey(), raw, p.ttl).Err()
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	err := p.rdb.Del(ctx, p.tokenKey(), p.userKey()).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
