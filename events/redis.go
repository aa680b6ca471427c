package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSink forwards events to redis pub/sub channels named <prefix>:<event>.
type RedisSink struct {
	client *redis.Client
	prefix string
}

// NewRedisSink connects to the redis server at url.
func NewRedisSink(url, prefix string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	return NewRedisSinkWithClient(redis.NewClient(opts), prefix), nil
}

func NewRedisSinkWithClient(client *redis.Client, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

// Channel returns the channel an event is published on.
func (s *RedisSink) Channel(event string) string {
	return fmt.Sprintf("%s:%s", s.prefix, event)
}

// Handle is a Listener publishing the event as JSON.
func (s *RedisSink) Handle(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	if err := s.client.Publish(ctx, s.Channel(evt.Name), payload).Err(); err != nil {
		return errors.Wrapf(err, "publishing %s", evt.Name)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
