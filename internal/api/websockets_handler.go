package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/isqad/melody"
	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

const (
	wsSubscriptionSessionKey = "subscription"
	wsUserIDSessionKey       = "userId"
)

// ClientMessage is an outbound signal from a websocket client, addressed to
// one peer's channel.
type ClientMessage struct {
	To  core.PeerID     `json:"to"`
	Rpc json.RawMessage `json:"rpc"`
}

func WebsocketsHandler(
	eventsSubscriber eventbus.Subscriber,
	websocket *melody.Melody,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := extractUserID(r)
		if err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("can't get the user from request context")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		subscription, err := eventsSubscriber.Subscribe(userID)
		if err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("can't subscribe the user to signaling channel")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		sessKeys := make(map[string]interface{})
		sessKeys[wsUserIDSessionKey] = userID
		sessKeys[wsSubscriptionSessionKey] = subscription

		if err := websocket.HandleRequestWithKeys(w, r, sessKeys); err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("can't handle request")
		}
	}
}

func ConnectHandler(session *melody.Session) {
	subscription, err := getUserSubscription(session)
	if err != nil {
		log.Error().Err(err).Str("service", "websockets").Msg("extract subscription error")
		if err := session.Close(); err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("close session error")
		}
		return
	}

	go func() {
		ch := subscription.Channel()

		for msg := range ch {
			if err := session.Write([]byte(msg.Payload)); err != nil {
				log.Error().Err(err).Str("service", "websockets").Msg("can't write to websocket")
			}
		}
	}()
}

func DisconnectHandler(session *melody.Session) {
	subscription, err := getUserSubscription(session)
	if err != nil {
		log.Error().Err(err).Str("service", "websockets").Msg("extract subscription error")
		return
	}
	if err := subscription.Close(); err != nil {
		log.Error().Err(err).Str("service", "websockets").Msg("close subscription error")
	}
}

func HandleMessage(eventsPublisher eventbus.Publisher) func(s *melody.Session, msg []byte) {
	return func(s *melody.Session, msg []byte) {
		clientMsg := &ClientMessage{}
		if err := json.Unmarshal(msg, clientMsg); err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("can't parse client message")
			return
		}
		if clientMsg.To == "" {
			log.Error().Str("service", "websockets").Msg("client message without recipient")
			return
		}

		r, err := rpc.RpcFromReader(bytes.NewReader(clientMsg.Rpc))
		if err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("rpc parse error")
			return
		}

		if err := eventsPublisher.Publish(clientMsg.To, r); err != nil {
			log.Error().Err(err).Str("service", "websockets").Msg("publish rpc error")
		}
	}
}

func getUserSubscription(s *melody.Session) (eventbus.Bus, error) {
	userSub, ok := s.Keys[wsSubscriptionSessionKey]
	if !ok {
		return nil, fmt.Errorf("no sub for given session: %+v", s)
	}
	subscription, ok := userSub.(eventbus.Bus)
	if !ok {
		return nil, fmt.Errorf("can't convert userSub: %+v", userSub)
	}
	return subscription, nil
}
