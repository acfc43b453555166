package http

import (
	"net/http"

	"spendlog/internal/advisor"
	"spendlog/internal/log"
)

// handleInitChat seeds the advisor with every (category, amount) pair. A
// storage failure is reported in the chat reply, not as an HTTP error.
func (s *Server) handleInitChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := s.expenses.Snapshot(ctx)
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAdvisor).ErrorContext(ctx, "Chat snapshot failed",
			log.FieldOperation, log.OpChatInit,
			log.FieldError, err)
		writeJSON(w, r, http.StatusOK, chatBody{Response: "Server Error: " + err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, chatBody{Response: s.chat.Initialize(ctx, snapshot)})
}

// handleChat relays one message. Every outcome is a 200 with a reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAdvisor).WarnContext(ctx, "Malformed chat request",
			log.FieldOperation, log.OpChatSend,
			log.FieldError, err)
		writeJSON(w, r, http.StatusOK, chatBody{Response: advisor.ErrorReply(err)})
		return
	}

	text := ""
	if req.Message != nil {
		text = *req.Message
	}

	writeJSON(w, r, http.StatusOK, chatBody{Response: s.chat.SendMessage(ctx, text)})
}
