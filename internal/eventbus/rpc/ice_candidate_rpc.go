package rpc

import (
	"encoding/json"

	"github.com/classway/callkit/internal/core"
	"github.com/pion/webrtc/v3"
)

type ICECandidateParams struct {
	webrtc.ICECandidateInit
	SenderID core.PeerID `json:"sender_id"`
}

// ICE candidate RPC
type ICECandidateRpc struct {
	jsonRpcHead
	Params ICECandidateParams `json:"params"`
}

func NewICECandidateRpc(senderID core.PeerID, candidate webrtc.ICECandidateInit) *ICECandidateRpc {
	return &ICECandidateRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  ICECandidateMethod,
		},
		Params: ICECandidateParams{
			ICECandidateInit: candidate,
			SenderID:         senderID,
		},
	}
}

func (r ICECandidateRpc) GetMethod() Method {
	return r.Method
}

func (r ICECandidateRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
