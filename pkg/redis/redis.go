package redis

import (
	"ExpressionAPI/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("redis address not configured")

const keyPrefix = "expression:predictions:"

// IRedis caches classifier output keyed by an image digest.
type IRedis interface {
	GetPredictions(ctx context.Context, key string) ([]entity.Prediction, bool, error)
	SetPredictions(ctx context.Context, key string, predictions []entity.Prediction, expiration time.Duration) error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

// New connects to REDIS_ADDRESS. It returns ErrNotConfigured when the address
// is unset so the cache can be skipped.
func New(log *logrus.Logger) (IRedis, error) {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		return nil, ErrNotConfigured
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return NewWithClient(client, log), nil
}

func NewWithClient(client *redis.Client, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

func (r *redisClient) GetPredictions(ctx context.Context, key string) ([]entity.Prediction, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting predictions for key %s: %v", key, err))
		return nil, false, err
	}

	var predictions []entity.Prediction
	if err := jsoniter.Unmarshal(val, &predictions); err != nil {
		return nil, false, err
	}

	return predictions, true, nil
}

func (r *redisClient) SetPredictions(ctx context.Context, key string, predictions []entity.Prediction, expiration time.Duration) error {
	payload, err := jsoniter.Marshal(predictions)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, keyPrefix+key, payload, expiration).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error setting predictions for key %s: %v", key, err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Cached predictions for key %s", key))
	return nil
}
