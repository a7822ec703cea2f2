package rediscache

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/redis/rueidis"
)

// redisStore is the rueidis-backed Store.
type redisStore struct {
	client rueidis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(expiration).Build()
	return s.client.Do(ctx, cmd).Error()
}

func newReader(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}
