package eventbus

import (
	"github.com/nats-io/nats.go"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

// nats subjects are dot-separated, so the channel separator differs from redis
func (c Channel) natsSubject(peerID core.PeerID) string {
	return string(c) + "." + string(peerID)
}

// NatsBus is the NATS backed signaling transport.
type NatsBus struct {
	nc *nats.Conn
}

func NatsPubSub(nc *nats.Conn) *NatsBus {
	return &NatsBus{nc: nc}
}

func (e *NatsBus) Publish(peerID core.PeerID, r rpc.Rpc) error {
	msg, err := r.ToJSON()
	if err != nil {
		return err
	}
	return e.nc.Publish(CallMessages.natsSubject(peerID), msg)
}

func (e *NatsBus) Subscribe(peerID core.PeerID) (Bus, error) {
	inbox := make(chan *nats.Msg, 64)

	sub, err := e.nc.ChanSubscribe(CallMessages.natsSubject(peerID), inbox)
	if err != nil {
		return nil, err
	}

	s := &natsSubscription{
		sub:      sub,
		inbox:    inbox,
		messages: make(chan Message),
	}
	go s.pump()

	return s, nil
}

type natsSubscription struct {
	sub      *nats.Subscription
	inbox    chan *nats.Msg
	messages chan Message
}

func (s *natsSubscription) pump() {
	defer close(s.messages)

	for msg := range s.inbox {
		s.messages <- Message{Payload: string(msg.Data)}
	}
}

func (s *natsSubscription) Channel() <-chan Message {
	return s.messages
}

func (s *natsSubscription) Close() error {
	err := s.sub.Unsubscribe()
	close(s.inbox)
	return err
}
