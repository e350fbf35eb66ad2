package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/you/go-flight-aggregator/internal/validate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsCommand struct {
	Action string `json:"action"`
}

type wsMessage struct {
	Type   string `json:"type"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Fields any    `json:"fields,omitempty"`
}

// handleSubscribe streams a search over a websocket: one result on
// connect and another each time the client sends {"action":"refresh"}.
// Criteria come from the path plus the usual query parameters.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("origin", chi.URLParam(r, "origin"))
	q.Set("destination", chi.URLParam(r, "destination"))

	c, err := ParseCriteria(q)
	if err != nil {
		var verr *validate.ValidationError
		errors.As(err, &verr)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid search", "fields": verr.Fields})
		return
	}
	if q.Get("currency") == "" && h.defaultCurrency != "" {
		c.Currency = h.defaultCurrency
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("route", c.String()).Logger()
	log.Debug().Msg("websocket subscribed")

	ctx := r.Context()
	send := func() error {
		res, err := h.search.SearchAll(ctx, c)
		if err != nil {
			msg := wsMessage{Type: "error", Error: err.Error()}
			var verr *validate.ValidationError
			if errors.As(err, &verr) {
				msg.Fields = verr.Fields
			}
			return conn.WriteJSON(msg)
		}
		return conn.WriteJSON(wsMessage{Type: "result", Result: res})
	}

	if err := send(); err != nil {
		return
	}
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		switch cmd.Action {
		case "refresh":
			err = send()
		default:
			err = conn.WriteJSON(wsMessage{Type: "error", Error: "unknown action " + cmd.Action})
		}
		if err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}
