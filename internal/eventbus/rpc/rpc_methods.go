package rpc

import (
	"encoding/json"
	"errors"
	"io"
)

const jsonRpcVersion = "2.0"

type Method string

const (
	CallRequestMethod  Method = "call_request"
	AcceptedMethod     Method = "accepted"
	RejectedMethod     Method = "rejected"
	EndedMethod        Method = "ended"
	SDPOfferMethod     Method = "offer"
	SDPAnswerMethod    Method = "answer"
	ICECandidateMethod Method = "iceCandidate"
	CameraToggleMethod Method = "camera_toggle"
)

var (
	ErrUnknownRpcType = errors.New("unknown RPC type")
	ErrMalformedRpc   = errors.New("malformed RPC")
)

type Rpc interface {
	GetMethod() Method
	ToJSON() ([]byte, error)
}

type jsonRpcHead struct {
	Version string `json:"jsonrpc"`
	Method  Method `json:"method"`
}

type jsonRpc struct {
	jsonRpcHead
	Params map[string]interface{} `json:"params"`
}

func RpcFromReader(reader io.Reader) (Rpc, error) {
	rpc := &jsonRpc{}

	err := json.NewDecoder(reader).Decode(rpc)
	if err != nil {
		return nil, err
	}

	params, err := json.Marshal(rpc.Params)
	if err != nil {
		return nil, err
	}

	switch rpc.Method {
	case CallRequestMethod:
		p := CallRequestParams{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		return NewCallRequestRpc(p.SenderID, p.Kind), nil
	case AcceptedMethod, RejectedMethod, EndedMethod:
		p := ControlParams{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		return newControlRpc(rpc.Method, p.SenderID), nil
	case SDPOfferMethod, SDPAnswerMethod:
		p := SDPParams{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		return newSDPRpc(rpc.Method, p), nil
	case ICECandidateMethod:
		p := ICECandidateParams{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		return NewICECandidateRpc(p.SenderID, p.ICECandidateInit), nil
	case CameraToggleMethod:
		p := CameraToggleParams{}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}

		return NewCameraToggleRpc(p.SenderID, p.CameraOff), nil
	default:
		return nil, ErrUnknownRpcType
	}
}
