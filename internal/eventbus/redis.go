package eventbus

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

func (c Channel) redisChannel(peerID core.PeerID) string {
	return string(c) + ":" + string(peerID)
}

// RedisBus is the redis pub/sub backed signaling transport.
type RedisBus struct {
	rdb *redis.Client
}

// RedisPubSub is factory for building the signaling bus on redis pub/sub.
func RedisPubSub(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (e *RedisBus) Publish(peerID core.PeerID, r rpc.Rpc) error {
	msg, err := r.ToJSON()
	if err != nil {
		return err
	}
	return e.rdb.Publish(context.Background(), CallMessages.redisChannel(peerID), msg).Err()
}

func (e *RedisBus) Subscribe(peerID core.PeerID) (Bus, error) {
	ctx := context.Background()
	pubsub := e.rdb.Subscribe(ctx, CallMessages.redisChannel(peerID))
	// Wait until the subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, err
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan Message),
	}
	go sub.pump()

	return sub, nil
}

type redisSubscription struct {
	pubsub   *redis.PubSub
	messages chan Message
}

func (s *redisSubscription) pump() {
	defer close(s.messages)

	for msg := range s.pubsub.Channel() {
		s.messages <- Message{Payload: msg.Payload}
	}
}

func (s *redisSubscription) Channel() <-chan Message {
	return s.messages
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
