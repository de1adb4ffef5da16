package eventbus

import (
	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

// Channel is the logical namespace for per-recipient signaling channels.
type Channel string

const CallMessages Channel = "calls"

// Message is one signaling payload as delivered by the underlying transport.
type Message struct {
	Payload string
}

// Bus is a live stream of messages for a single recipient channel.
type Bus interface {
	Channel() <-chan Message
	Close() error
}

// Publisher delivers a signaling RPC to the channel of the given peer.
// Delivery is fire-and-forget: at most once, no acknowledgment, no retry.
type Publisher interface {
	Publish(peerID core.PeerID, rpc rpc.Rpc) error
}

// Subscriber opens the signaling channel of the given peer.
type Subscriber interface {
	Subscribe(peerID core.PeerID) (Bus, error)
}
