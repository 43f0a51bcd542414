package httpapi

import (
	"net/http"
	"strconv"

	"github.com/foxseedlab/sirius/internal/meeting"
	"github.com/foxseedlab/sirius/internal/repository"
)

type sendChatRequest struct {
	SenderCedula string                     `json:"sender_cedula"`
	SenderName   string                     `json:"sender_name"`
	SenderType   repository.ParticipantType `json:"sender_type"`
	MessageText  string                     `json:"message_text"`
	MessageType  string                     `json:"message_type"`
	ReplyToID    *string                    `json:"reply_to_id"`
	Metadata     map[string]any             `json:"metadata"`
}

type editChatRequest struct {
	MessageID      string `json:"messageId"`
	MessageText    string `json:"message_text"`
	EditedByCedula string `json:"edited_by_cedula"`
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		writeError(w, http.StatusBadRequest, messageInvalidPagination)
		return
	}
	messages, err := s.svc.ChatHistory(r.Context(), r.PathValue("roomId"), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nonNil(messages)})
}

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var req sendChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	msg, err := s.svc.SendChatMessage(r.Context(), meeting.SendChatRequest{
		RoomID:       r.PathValue("roomId"),
		SenderCedula: req.SenderCedula,
		SenderName:   req.SenderName,
		SenderType:   req.SenderType,
		MessageText:  req.MessageText,
		MessageType:  req.MessageType,
		ReplyToID:    req.ReplyToID,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": msg})
}

func (s *Server) handleEditChat(w http.ResponseWriter, r *http.Request) {
	var req editChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	msg, err := s.svc.EditChatMessage(r.Context(), r.PathValue("roomId"), req.MessageID, req.MessageText, req.EditedByCedula)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": msg})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.svc.DeleteChatMessage(r.Context(), r.PathValue("roomId"), q.Get("messageId"), q.Get("cedula")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": messageMessageDeleted})
}

// pagination reads optional limit and offset query values. Zero means the
// service default.
func pagination(r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	var err error
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	return limit, offset, true
}
