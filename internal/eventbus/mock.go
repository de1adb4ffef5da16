package eventbus

import (
	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

// MockBus feeds messages from a plain Go channel, standing in for the
// pub/sub transport in tests.
type MockBus struct {
	Messages chan Message
}

func NewMockBus() *MockBus {
	return &MockBus{Messages: make(chan Message)}
}

func (b *MockBus) Channel() <-chan Message {
	return b.Messages
}

func (b *MockBus) Close() error {
	close(b.Messages)
	return nil
}

type MockSubscriber struct {
	Subscribed     bool
	SubscribedPeer core.PeerID
	Bus            *MockBus
}

func NewMockSubscriber(bus *MockBus) *MockSubscriber {
	return &MockSubscriber{Bus: bus}
}

func (s *MockSubscriber) Subscribe(peerID core.PeerID) (Bus, error) {
	s.Subscribed = true
	s.SubscribedPeer = peerID

	return s.Bus, nil
}

// MockPublisher records published RPCs per recipient.
type MockPublisher struct {
	Published []PublishedRpc
	MockErr   error
}

type PublishedRpc struct {
	PeerID core.PeerID
	Rpc    rpc.Rpc
}

func (p *MockPublisher) Publish(peerID core.PeerID, r rpc.Rpc) error {
	p.Published = append(p.Published, PublishedRpc{PeerID: peerID, Rpc: r})
	return p.MockErr
}
