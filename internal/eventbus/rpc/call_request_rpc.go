package rpc

import (
	"encoding/json"

	"github.com/classway/callkit/internal/core"
)

type CallRequestParams struct {
	SenderID core.PeerID   `json:"sender_id"`
	Kind     core.CallKind `json:"kind"`
}

// CallRequestRpc is the dial invite: it creates a ringing session on the
// remote side before any SDP is exchanged.
type CallRequestRpc struct {
	jsonRpcHead
	Params CallRequestParams `json:"params"`
}

func NewCallRequestRpc(senderID core.PeerID, kind core.CallKind) *CallRequestRpc {
	return &CallRequestRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  CallRequestMethod,
		},
		Params: CallRequestParams{
			SenderID: senderID,
			Kind:     kind,
		},
	}
}

func (r CallRequestRpc) GetMethod() Method {
	return r.Method
}

func (r CallRequestRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
