package server

import (
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"

	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/session"
	"github.com/dotcommander/agentgw/internal/wire"
)

type chatRequest struct {
	Message *string `json:"message"`
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// chatCompletionsRequest accepts stream, temperature and max_tokens for
// compatibility; the response always streams with the gateway's settings.
type chatCompletionsRequest struct {
	Model       *string        `json:"model"`
	Messages    *[]chatMessage `json:"messages"`
	Stream      *bool          `json:"stream,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
}

type modelList struct {
	Object string      `json:"object"`
	Data   []modelInfo `json:"data"`
}

type modelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "agentgw server is running."})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelList{
		Object: "list",
		Data: []modelInfo{{
			ID:      s.cfg.Model,
			Object:  "model",
			Created: s.now().Unix(),
			OwnedBy: "local",
		}},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	if req.Message == nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
		return
	}

	ctx := r.Context()
	convo := session.FromPrompt(ctx, s.cfg.System, *req.Message)
	events := observe(ctx, s.source.Events(ctx, convo))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	s.writeFrames(w, r, wire.Raw(events))
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	if req.Model == nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	if req.Messages == nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid_request_error", "messages is required")
		return
	}

	msgs := make([]proto.Message, 0, len(*req.Messages))
	for _, m := range *req.Messages {
		msgs = append(msgs, proto.Message{
			Role:    m.Role,
			Content: messageText(m.Content),
		})
	}

	ctx := r.Context()
	convo := session.FromMessages(ctx, s.cfg.System, msgs)
	events := observe(ctx, s.source.Events(ctx, convo))
	enc := wire.OpenAI{ID: s.newID(), Model: *req.Model, Now: s.now}

	setSSEHeaders(w)
	s.writeFrames(w, r, enc.Frames(events))
}

// writeFrames writes and flushes each frame as it is produced. A failed write
// means the client is gone and stops the stream.
func (s *Server) writeFrames(w http.ResponseWriter, r *http.Request, frames iter.Seq[wire.Frame]) {
	rc := http.NewResponseController(w)
	w.WriteHeader(http.StatusOK)
	for f := range frames {
		if _, err := f.WriteTo(w); err != nil {
			slog.DebugContext(r.Context(), "server: client gone", "err", err)
			return
		}
		if err := rc.Flush(); err != nil {
			slog.DebugContext(r.Context(), "server: flush failed", "err", err)
			return
		}
	}
}
