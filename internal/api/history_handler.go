package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/history"
)

func CallHistoryHandler(records history.CallRecordsStorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := extractUserID(r)
		if err != nil {
			log.Error().Err(err).Str("service", "api").Msg("can't get user ID from request context")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var (
			page    int
			perPage int
		)
		if pageParam := r.URL.Query().Get("p"); pageParam != "" {
			page, err = strconv.Atoi(pageParam)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}
		if perPageParam := r.URL.Query().Get("limit"); perPageParam != "" {
			perPage, err = strconv.Atoi(perPageParam)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}

		list, err := records.ListByPeer(userID, page, perPage)
		if err != nil {
			log.Error().Err(err).Str("service", "api").Msg("can't list call records")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, list)
	}
}
