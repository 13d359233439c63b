package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Keys carry the day because relative dates ("today") resolve differently tomorrow.
	extractionKeyPrefix = "flybot:extract:%s:%s"
	defaultCacheTTL     = 6 * time.Hour
)

// CachedExtractor is a read-through Redis cache in front of another Extractor.
// Cache failures are logged and bypassed.
type CachedExtractor struct {
	next   Extractor
	redis  *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewCachedExtractor(next Extractor, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedExtractor {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedExtractor{next: next, redis: rdb, ttl: ttl, now: time.Now, logger: logger}
}

func (c *CachedExtractor) Extract(ctx context.Context, utterance string) (*Extraction, error) {
	key := c.key(utterance)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ext Extraction
		if jsonErr := json.Unmarshal(raw, &ext); jsonErr == nil {
			return &ext, nil
		}
		c.logger.Warn("discarding corrupt cached extraction", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("extraction cache read failed", zap.Error(err))
	}

	ext, err := c.next.Extract(ctx, utterance)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(ext); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("extraction cache write failed", zap.Error(err))
		}
	}
	return ext, nil
}

func (c *CachedExtractor) key(utterance string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(utterance))))
	return fmt.Sprintf(extractionKeyPrefix, c.now().Format("20060102"), hex.EncodeToString(sum[:]))
}

// FallbackExtractor tries primary first and uses secondary when it errors.
type FallbackExtractor struct {
	primary   Extractor
	secondary Extractor
	logger    *zap.Logger
}

func NewFallbackExtractor(primary, secondary Extractor, logger *zap.Logger) *FallbackExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackExtractor{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackExtractor) Extract(ctx context.Context, utterance string) (*Extraction, error) {
	ext, err := f.primary.Extract(ctx, utterance)
	if err == nil {
		return ext, nil
	}
	f.logger.Warn("primary extractor failed, using fallback", zap.Error(err))
	return f.secondary.Extract(ctx, utterance)
}
