package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/foxseedlab/sirius/internal/meeting"
	"github.com/foxseedlab/sirius/internal/repository"
)

type verifyEmployeeRequest struct {
	Cedula string `json:"cedula"`
}

type callTokenRequest struct {
	UserID  string `json:"userId"`
	IsGuest bool   `json:"isGuest"`
}

type createMeetingRequest struct {
	Title                string                      `json:"title"`
	Description          string                      `json:"description"`
	RoomID               string                      `json:"room_id"`
	MeetingType          string                      `json:"meeting_type"`
	HostCedula           string                      `json:"host_cedula"`
	ScheduledAt          *time.Time                  `json:"scheduled_at"`
	DurationMinutes      int                         `json:"duration_minutes"`
	ParticipantCedulas   []string                    `json:"participant_cedulas"`
	ExternalParticipants []externalParticipantFields `json:"external_participants"`
}

type externalParticipantFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleVerifyEmployee(w http.ResponseWriter, r *http.Request) {
	var req verifyEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	emp, err := s.svc.VerifyEmployee(r.Context(), req.Cedula)
	if errors.Is(err, meeting.ErrNotFound) {
		writeError(w, http.StatusNotFound, messageEmployeeNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "employee": emp})
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.svc.ListInvitableEmployees(r.Context(), r.URL.Query().Get("exclude"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "employees": nonNil(employees)})
}

func (s *Server) handleCallToken(w http.ResponseWriter, r *http.Request) {
	var req callTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	token, err := s.svc.IssueCallToken(req.UserID, req.IsGuest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.svc.ListMeetings(r.Context(), r.URL.Query().Get("cedula"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "meetings": nonNil(meetings)})
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	in := meeting.CreateMeetingRequest{
		Title:              req.Title,
		Description:        req.Description,
		RoomID:             req.RoomID,
		MeetingType:        req.MeetingType,
		HostCedula:         req.HostCedula,
		DurationMinutes:    req.DurationMinutes,
		ParticipantCedulas: req.ParticipantCedulas,
	}
	if req.ScheduledAt != nil {
		in.ScheduledAt = *req.ScheduledAt
	}
	for _, p := range req.ExternalParticipants {
		in.ExternalParticipants = append(in.ExternalParticipants, repository.ExternalParticipantInput{Name: p.Name, Email: p.Email})
	}

	m, err := s.svc.CreateMeeting(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "meeting": m})
}

func (s *Server) handleMeetingSubresource(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "by-room":
		s.handleMeetingByRoom(w, r, second)
	case second == "transcription":
		s.handleTranscriptView(w, r, first)
	default:
		writeError(w, http.StatusNotFound, messageNotFound)
	}
}

func (s *Server) handleMeetingByRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	m, err := s.svc.GetMeetingByRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "meeting": m})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
