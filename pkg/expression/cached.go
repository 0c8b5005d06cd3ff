package expression

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/redis"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultCacheTTL = 24 * time.Hour

type cached struct {
	next  Classifier
	cache redis.IRedis
	ttl   time.Duration
	log   *logrus.Logger
}

// NewCached serves repeated images from cache. Cache failures are logged and
// fall through to the wrapped classifier.
func NewCached(next Classifier, cache redis.IRedis, ttl time.Duration, log *logrus.Logger) Classifier {
	if !IsAvailable(next) || cache == nil {
		return next
	}
	return &cached{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *cached) Classify(ctx context.Context, image []byte) ([]entity.Prediction, error) {
	sum := sha256.Sum256(image)
	key := hex.EncodeToString(sum[:])

	if predictions, ok, err := c.cache.GetPredictions(ctx, key); err != nil {
		c.log.WithField("error", err.Error()).Warn("Prediction cache lookup failed")
	} else if ok {
		return predictions, nil
	}

	predictions, err := c.next.Classify(ctx, image)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetPredictions(ctx, key, predictions, c.ttl); err != nil {
		c.log.WithField("error", err.Error()).Warn("Prediction cache store failed")
	}

	return predictions, nil
}
