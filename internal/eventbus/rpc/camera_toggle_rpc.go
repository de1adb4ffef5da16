package rpc

import (
	"encoding/json"

	"github.com/classway/callkit/internal/core"
)

type CameraToggleParams struct {
	SenderID  core.PeerID `json:"sender_id"`
	CameraOff bool        `json:"camera_off"`
}

// CameraToggleRpc tells the remote side to flip its remote-video-muted flag.
// The receiver never inspects the media track itself.
type CameraToggleRpc struct {
	jsonRpcHead
	Params CameraToggleParams `json:"params"`
}

func NewCameraToggleRpc(senderID core.PeerID, cameraOff bool) *CameraToggleRpc {
	return &CameraToggleRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  CameraToggleMethod,
		},
		Params: CameraToggleParams{
			SenderID:  senderID,
			CameraOff: cameraOff,
		},
	}
}

func (r CameraToggleRpc) GetMethod() Method {
	return r.Method
}

func (r CameraToggleRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
