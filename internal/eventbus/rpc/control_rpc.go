package rpc

import (
	"encoding/json"

	"github.com/classway/callkit/internal/core"
)

type ControlParams struct {
	SenderID core.PeerID `json:"sender_id"`
}

// ControlRpc covers the bodyless lifecycle signals: accepted, rejected, ended.
type ControlRpc struct {
	jsonRpcHead
	Params ControlParams `json:"params"`
}

func newControlRpc(method Method, senderID core.PeerID) *ControlRpc {
	return &ControlRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  method,
		},
		Params: ControlParams{SenderID: senderID},
	}
}

func NewAcceptedRpc(senderID core.PeerID) *ControlRpc {
	return newControlRpc(AcceptedMethod, senderID)
}

func NewRejectedRpc(senderID core.PeerID) *ControlRpc {
	return newControlRpc(RejectedMethod, senderID)
}

func NewEndedRpc(senderID core.PeerID) *ControlRpc {
	return newControlRpc(EndedMethod, senderID)
}

func (r ControlRpc) GetMethod() Method {
	return r.Method
}

func (r ControlRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
