package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Decision is the outcome of taking one token from a client bucket.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

type bucket struct {
	client redis.Scripter
	rate   float64
	burst  int
	ttl    time.Duration
}

func newBucket(client redis.Scripter, rate float64, burst int) (*bucket, error) {
	if rate <= 0 || burst <= 0 {
		return nil, errors.New("spin rate limit must be positive")
	}
	return &bucket{
		client: client,
		rate:   rate,
		burst:  burst,
		ttl:    bucketTTL(rate, burst),
	}, nil
}

func (b *bucket) take(ctx context.Context, key string) (Decision, error) {
	raw, err := bucketScript.Run(ctx, b.client, []string{key},
		b.rate, b.burst, b.ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(raw) != 2 {
		return Decision{}, errors.New("unexpected bucket script reply")
	}
	return decide(toInt(raw[0]) == 1, toFloat(raw[1]), b.rate), nil
}

func decide(allowed bool, remaining, rate float64) Decision {
	d := Decision{Allowed: allowed, Remaining: remaining}
	if !allowed && rate > 0 {
		if missing := 1 - remaining; missing > 0 {
			d.RetryAfter = time.Duration(missing / rate * float64(time.Second))
		}
	}
	return d
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil(float64(burst) / rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return parsed
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
