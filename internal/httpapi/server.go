// Package httpapi exposes the meeting backend over HTTP.
package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/meeting"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the set of backend operations the handlers call.
type Service interface {
	VerifyEmployee(ctx context.Context, cedula string) (*repository.Employee, error)
	ListInvitableEmployees(ctx context.Context, excludeCedula string) ([]repository.Employee, error)
	IssueCallToken(userID string, guest bool) (string, error)

	ListMeetings(ctx context.Context, cedula string) ([]repository.Meeting, error)
	CreateMeeting(ctx context.Context, req meeting.CreateMeetingRequest) (*repository.Meeting, error)
	GetMeetingByRoom(ctx context.Context, roomID string) (*repository.Meeting, error)

	UploadAudio(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	StartTranscription(ctx context.Context, meetingID, audioURL string) (*repository.Transcription, error)
	TranscriptionStatus(ctx context.Context, transcriptionID, jobID string) (*repository.Transcription, error)
	LatestTranscription(ctx context.Context, meetingID string) (*repository.Transcription, error)
	TranscriptView(ctx context.Context, meetingID string) (*meeting.TranscriptView, error)
	ImportCallTranscript(ctx context.Context, meetingID string) (*repository.Transcription, error)
	StartLiveTranscription(ctx context.Context, roomID string) (*repository.Meeting, error)
	StopLiveTranscription(ctx context.Context, roomID string) (*repository.Meeting, error)

	ChatHistory(ctx context.Context, roomID string, limit, offset int) ([]repository.ChatMessage, error)
	SendChatMessage(ctx context.Context, req meeting.SendChatRequest) (*repository.ChatMessage, error)
	EditChatMessage(ctx context.Context, roomID, messageID, text, editorCedula string) (*repository.ChatMessage, error)
	DeleteChatMessage(ctx context.Context, roomID, messageID, cedula string) error
	OpenChatFeed(ctx context.Context, roomID, viewerCedula string) (*chat.Feed, chat.Subscription, error)
}

type Server struct {
	svc      Service
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func NewServer(svc Service, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		svc:      svc,
		metrics:  m,
		gatherer: gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/auth/verify", s.handleVerifyEmployee)
	s.mux.HandleFunc("GET /api/employees", s.handleListEmployees)
	s.mux.HandleFunc("POST /api/stream/token", s.handleCallToken)

	s.mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	s.mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	// by-room/{roomId} and {meetingId}/transcription overlap as mux patterns.
	s.mux.HandleFunc("GET /api/meetings/{first}/{second}", s.handleMeetingSubresource)
	s.mux.HandleFunc("POST /api/meetings/{meetingId}/transcription/import", s.handleImportCallTranscript)

	s.mux.HandleFunc("POST /api/calls/{roomId}/transcription/start", s.handleStartLiveTranscription)
	s.mux.HandleFunc("POST /api/calls/{roomId}/transcription/stop", s.handleStopLiveTranscription)

	s.mux.HandleFunc("POST /api/transcription", s.handleStartTranscription)
	s.mux.HandleFunc("POST /api/transcription/upload", s.handleUploadAudio)
	s.mux.HandleFunc("GET /api/transcription", s.handleTranscriptionStatus)
	s.mux.HandleFunc("GET /api/transcription/meeting/{meetingId}", s.handleLatestTranscription)

	s.mux.HandleFunc("GET /api/chat/{roomId}", s.handleChatHistory)
	s.mux.HandleFunc("POST /api/chat/{roomId}", s.handleSendChat)
	s.mux.HandleFunc("PUT /api/chat/{roomId}", s.handleEditChat)
	s.mux.HandleFunc("DELETE /api/chat/{roomId}", s.handleDeleteChat)
	s.mux.HandleFunc("GET /api/chat/{roomId}/stream", s.handleChatStream)

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
