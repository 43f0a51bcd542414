package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
)

const (
	maxAudioBytes     = 512 << 20
	multipartMemBytes = 32 << 20
	audioFormField    = "audio"
)

type startTranscriptionRequest struct {
	MeetingID string `json:"meetingId"`
	AudioURL  string `json:"audioUrl"`
}

func (s *Server) handleStartTranscription(w http.ResponseWriter, r *http.Request) {
	var req startTranscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	tr, err := s.svc.StartTranscription(r.Context(), req.MeetingID, req.AudioURL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":         true,
		"transcriptionId": tr.ID,
		"jobId":           tr.ProviderJobID,
		"status":          tr.Status,
	})
}

func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(multipartMemBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, messageAudioTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(audioFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, messageAudioMissing)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	slog.Info("receiving audio upload", "filename", header.Filename, "bytes", header.Size)

	uri, err := s.svc.UploadAudio(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "audioUrl": uri, "message": messageAudioUploaded})
}

func (s *Server) handleTranscriptionStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tr, err := s.svc.TranscriptionStatus(r.Context(), q.Get("transcriptionId"), q.Get("jobId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transcription": tr})
}

func (s *Server) handleLatestTranscription(w http.ResponseWriter, r *http.Request) {
	tr, err := s.svc.LatestTranscription(r.Context(), r.PathValue("meetingId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transcription": tr})
}

func (s *Server) handleTranscriptView(w http.ResponseWriter, r *http.Request, meetingID string) {
	view, err := s.svc.TranscriptView(r.Context(), meetingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleImportCallTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := s.svc.ImportCallTranscript(r.Context(), r.PathValue("meetingId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transcription": tr})
}

func (s *Server) handleStartLiveTranscription(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.StartLiveTranscription(r.Context(), r.PathValue("roomId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "meeting": m})
}

func (s *Server) handleStopLiveTranscription(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.StopLiveTranscription(r.Context(), r.PathValue("roomId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "meeting": m, "message": messageTranscriptionStop})
}
