package repository

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
)

const dedupKeyPrefix = "sms:dedup:"

type DedupRepository struct {
	rdb *goredis.Client
}

func NewDedupRepository(rdb *goredis.Client) *DedupRepository {
	return &DedupRepository{
		rdb: rdb,
	}
}

// Fingerprint hashes the fields that identify a message as the device saw it.
// Fields are length-prefixed so "ab"+"c" and "a"+"bc" differ.
func Fingerprint(sender, content string, timestamp time.Time) string {
	h := blake3.New()

	for _, part := range []string{sender, content, strconv.FormatInt(timestamp.UnixMilli(), 10)} {
		_, _ = h.Write([]byte(strconv.Itoa(len(part)) + ":" + part))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Claim stores id under fingerprint unless another id already holds it.
// It returns the id that owns the fingerprint and whether this call claimed it.
func (r *DedupRepository) Claim(ctx context.Context, fingerprint string, id uuid.UUID, ttl time.Duration) (uuid.UUID, bool, error) {
	key := dedupKeyPrefix + fingerprint

	ok, err := r.rdb.SetNX(ctx, key, id.String(), ttl).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to claim fingerprint: %w", err)
	}

	if ok {
		return id, true, nil
	}

	existing, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// Expired between SETNX and GET; treat as fresh.
			return id, true, r.rdb.Set(ctx, key, id.String(), ttl).Err()
		}

		return uuid.Nil, false, fmt.Errorf("failed to read fingerprint: %w", err)
	}

	existingID, err := uuid.Parse(existing)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt fingerprint value: %w", err)
	}

	return existingID, false, nil
}

// Release drops a claim whose message never made it to the database.
func (r *DedupRepository) Release(ctx context.Context, fingerprint string) error {
	return r.rdb.Del(ctx, dedupKeyPrefix+fingerprint).Err()
}
