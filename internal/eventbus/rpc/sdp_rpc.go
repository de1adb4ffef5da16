package rpc

import (
	"encoding/json"

	"github.com/classway/callkit/internal/core"
	"github.com/pion/webrtc/v3"
)

type SDPParams struct {
	webrtc.SessionDescription
	SenderID core.PeerID `json:"sender_id"`
}

// SDP RPC
type SDPRpc struct {
	jsonRpcHead
	Params SDPParams `json:"params"`
}

func newSDPRpc(method Method, params SDPParams) *SDPRpc {
	return &SDPRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  method,
		},
		Params: params,
	}
}

func NewSDPOfferRpc(senderID core.PeerID, sdp webrtc.SessionDescription) *SDPRpc {
	return newSDPRpc(SDPOfferMethod, SDPParams{
		SessionDescription: sdp,
		SenderID:           senderID,
	})
}

func NewSDPAnswerRpc(senderID core.PeerID, sdp webrtc.SessionDescription) *SDPRpc {
	return newSDPRpc(SDPAnswerMethod, SDPParams{
		SessionDescription: sdp,
		SenderID:           senderID,
	})
}

func (r SDPRpc) GetMethod() Method {
	return r.Method
}

func (r SDPRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
