package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/leadstream/leadstream/internal/types"
)

const transferTimeout = 5 * time.Second

type ChatMessageRequest struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatTransferRequest struct {
	SessionId string                     `json:"session_id"`
	Recent    []types.ChatContextMessage `json:"recent_messages"`
}

type ChatHistoryResponse struct {
	SessionId string                     `json:"session_id"`
	Messages  []types.ChatContextMessage `json:"messages"`
}

// chatMessage answers a visitor message with the automated assistant.
// The realtime hub handles delivery of in-session traffic; this
// endpoint exists for clients that talk to the assistant over plain
// HTTP before opening a socket.
func (s *LeadStreamApp) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	reply := s.assistant.Respond(req.Message)

	s.writeJson(w, http.StatusOK, reply)
}

func (s *LeadStreamApp) chatTransfer(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ChatTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	result, err := s.rt.RequestTransfer(ctx, req.SessionId, userFromDb(user), req.Recent)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			errResp := &ApiError{
				StatusCode: http.StatusServiceUnavailable,
				Message:    lower(http.StatusText(http.StatusServiceUnavailable)),
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, result)
}

// chatHistory reports the server-side view of a session transcript.
// Transcripts live on the client, so the message list is always empty;
// the endpoint exists so clients have a stable shape to merge local
// history into.
func (s *LeadStreamApp) chatHistory(w http.ResponseWriter, r *http.Request) {
	sessionId := r.PathValue("sessionId")
	if sessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, ChatHistoryResponse{
		SessionId: sessionId,
		Messages:  []types.ChatContextMessage{},
	})
}
