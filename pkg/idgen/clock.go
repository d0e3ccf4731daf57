package idgen

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Clock abstracts the millisecond time source for the generator.
type Clock interface {
	Now() int64
}

// SystemClock reads the local system time.
type SystemClock struct{}

func (s *SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// RedisClock reads time from the shared Redis instance so several
// coordinators stay monotonic relative to each other even when a local
// clock drifts. It degrades to the system clock when Redis is down.
type RedisClock struct {
	client *redis.Client
}

func NewRedisClock(client *redis.Client) *RedisClock {
	return &RedisClock{client: client}
}

func (r *RedisClock) Now() int64 {
	res, err := r.client.Time(context.Background()).Result()
	if err != nil {
		return time.Now().UnixMilli()
	}
	return res.Unix()*1000 + int64(res.Nanosecond())/1e6
}
