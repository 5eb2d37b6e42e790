package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"exam-grader/internal/app"
	"exam-grader/internal/domain"
)

// WSHandler streams question results to clients while a submission is graded.
type WSHandler struct {
	service  *app.GradingService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GradingService, logger *zap.Logger, checkOrigin func(r *http.Request) bool) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and grades every "evaluate" message it receives.
// Each submission yields one "questionResult" message per question followed by a "report".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				// Drain so the reader never blocks on a dead connection.
				for range send {
				}
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "evaluate":
			var sub domain.Submission
			if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
				send <- errorMessage("invalid evaluate payload")
				continue
			}
			report, err := h.service.EvaluateStream(r.Context(), sub, func(q domain.QuestionResult) {
				send <- outboundMessage[any]{Type: "questionResult", Payload: q}
			})
			if err != nil {
				_, message := statusFor(err)
				send <- errorMessage(message)
				continue
			}
			send <- outboundMessage[any]{Type: "report", Payload: report}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
