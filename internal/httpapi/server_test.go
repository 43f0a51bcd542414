package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/meeting"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/transcript"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	createdReq    meeting.CreateMeetingRequest
	chatRequest   meeting.SendChatRequest
	historyLimit  int
	historyOffset int
	deleted       []string
	statusArgs    [2]string
	err           error
	history       []repository.ChatMessage
	events        chan chat.Event
	uploadName    string
	uploadData    string
}

func (f *fakeService) VerifyEmployee(_ context.Context, cedula string) (*repository.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	if cedula == "" {
		return nil, fmt.Errorf("%w: cedula is required", meeting.ErrInvalidInput)
	}
	if cedula != "123" {
		return nil, meeting.ErrNotFound
	}
	return &repository.Employee{Cedula: cedula, FirstName: "Ana", IsActive: true}, nil
}

func (f *fakeService) ListInvitableEmployees(_ context.Context, _ string) ([]repository.Employee, error) {
	return nil, f.err
}

func (f *fakeService) IssueCallToken(userID string, guest bool) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: userId is required", meeting.ErrInvalidInput)
	}
	return fmt.Sprintf("tok-%s-%t", userID, guest), nil
}

func (f *fakeService) ListMeetings(_ context.Context, _ string) ([]repository.Meeting, error) {
	return []repository.Meeting{{ID: "m1"}}, f.err
}

func (f *fakeService) CreateMeeting(_ context.Context, req meeting.CreateMeetingRequest) (*repository.Meeting, error) {
	f.createdReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &repository.Meeting{ID: "m1", Title: req.Title, RoomID: "generated"}, nil
}

func (f *fakeService) GetMeetingByRoom(_ context.Context, roomID string) (*repository.Meeting, error) {
	if roomID != "room-1" {
		return nil, fmt.Errorf("%w: meeting", meeting.ErrNotFound)
	}
	return &repository.Meeting{ID: "m1", RoomID: roomID}, nil
}

func (f *fakeService) UploadAudio(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploadName, f.uploadData = filename, string(b)
	return "gs://sirius-audio/audio/" + filename, nil
}

func (f *fakeService) StartTranscription(_ context.Context, meetingID, _ string) (*repository.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &repository.Transcription{ID: "t1", MeetingID: meetingID, ProviderJobID: "job-1", Status: repository.TranscriptionStatusProcessing}, nil
}

func (f *fakeService) TranscriptionStatus(_ context.Context, transcriptionID, jobID string) (*repository.Transcription, error) {
	f.statusArgs = [2]string{transcriptionID, jobID}
	return &repository.Transcription{ID: "t1", Status: repository.TranscriptionStatusCompleted}, f.err
}

func (f *fakeService) LatestTranscription(_ context.Context, _ string) (*repository.Transcription, error) {
	return nil, fmt.Errorf("%w: transcription", meeting.ErrNotFound)
}

func (f *fakeService) TranscriptView(_ context.Context, _ string) (*meeting.TranscriptView, error) {
	return &meeting.TranscriptView{
		Transcription: &repository.Transcription{ID: "t1"},
		Segments:      []transcript.Segment{{SpeakerID: "A", Kind: transcript.KindSpeech, Text: "hi", StopTS: 1000}},
		Groups:        []transcript.SpeakerGroup{{SpeakerID: "A", Text: "hi", StopTS: 1000, SegmentCount: 1}},
		Speakers:      []string{"A"},
		Summary:       "Duration: 00:01 | 1 participant | 1 words | 1 segments",
		TotalDuration: 1000,
		WordCount:     1,
	}, nil
}

func (f *fakeService) ImportCallTranscript(_ context.Context, _ string) (*repository.Transcription, error) {
	return nil, fmt.Errorf("%w: list: boom", meeting.ErrUnavailable)
}

func (f *fakeService) StartLiveTranscription(_ context.Context, _ string) (*repository.Meeting, error) {
	return nil, fmt.Errorf("%w: cancelled", meeting.ErrForbidden)
}

func (f *fakeService) StopLiveTranscription(_ context.Context, roomID string) (*repository.Meeting, error) {
	return &repository.Meeting{ID: "m1", RoomID: roomID}, nil
}

func (f *fakeService) ChatHistory(_ context.Context, _ string, limit, offset int) ([]repository.ChatMessage, error) {
	f.historyLimit, f.historyOffset = limit, offset
	return nil, nil
}

func (f *fakeService) SendChatMessage(_ context.Context, req meeting.SendChatRequest) (*repository.ChatMessage, error) {
	f.chatRequest = req
	return &repository.ChatMessage{ID: "msg-1", RoomID: req.RoomID, MessageText: req.MessageText}, nil
}

func (f *fakeService) EditChatMessage(_ context.Context, _, messageID, _, _ string) (*repository.ChatMessage, error) {
	return nil, fmt.Errorf("%w: message %s", meeting.ErrNotFound, messageID)
}

func (f *fakeService) DeleteChatMessage(_ context.Context, _, messageID, _ string) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeService) OpenChatFeed(_ context.Context, roomID, viewer string) (*chat.Feed, chat.Subscription, error) {
	return chat.NewFeed(roomID, viewer, f.history), &fakeSubscription{events: f.events}, nil
}

type fakeSubscription struct {
	events chan chat.Event
}

func (s *fakeSubscription) Events() <-chan chat.Event { return s.events }
func (s *fakeSubscription) Close() error              { return nil }

func newTestServer(t *testing.T, svc *fakeService) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(svc, m, reg).Handler())
	t.Cleanup(srv.Close)
	return srv, m
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestVerifyEmployee(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/auth/verify", `{"cedula":"123"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Ana", body["employee"].(map[string]any)["first_name"])

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/auth/verify", `{"cedula":"999"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, messageEmployeeNotFound, body["error"])

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/auth/verify", `{"cedula":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{err: fmt.Errorf("pq: password authentication failed for user sirius")})

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/employees", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, messageInternalError, body["error"])
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	_, body := doRequest(t, http.MethodGet, srv.URL+"/api/employees?exclude=1", "")

	assert.Equal(t, []any{}, body["employees"])
}

func TestCallToken(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/stream/token", `{"userId":"guest-1","isGuest":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tok-guest-1-true", body["token"])

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/stream/token", `{"isGuest":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMeeting(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/meetings", `{
		"title": "Planning",
		"host_cedula": "123",
		"scheduled_at": "2025-03-01T09:00:00Z",
		"participant_cedulas": ["456"],
		"external_participants": [{"name": "Bob", "email": "bob@example.com"}]
	}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Planning", body["meeting"].(map[string]any)["title"])
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), svc.createdReq.ScheduledAt.UTC())
	assert.Equal(t, []string{"456"}, svc.createdReq.ParticipantCedulas)
	require.Len(t, svc.createdReq.ExternalParticipants, 1)
	assert.Equal(t, "bob@example.com", svc.createdReq.ExternalParticipants[0].Email)
}

func TestMeetingByRoom(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/meetings/by-room/room-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/meetings/by-room/other", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, messageNotFound, body["error"])
}

func TestTranscriptionRoutes(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/transcription", `{"meetingId":"m1","audioUrl":"gs://b/a.wav"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "job-1", body["jobId"])

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/transcription?jobId=job-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, [2]string{"", "job-1"}, svc.statusArgs)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/transcription/meeting/m1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doRequest(t, http.MethodGet, srv.URL+"/api/meetings/m1/transcription", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Duration: 00:01 | 1 participant | 1 words | 1 segments", body["summary"])
	assert.Len(t, body["groups"], 1)

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/meetings/m1/transcription/import", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, messageUpstreamError, body["error"])
}

func postAudio(t *testing.T, url, field, filename, data string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestUploadAudio(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	resp, body := postAudio(t, srv.URL+"/api/transcription/upload", "audio", "meeting.mp3", "ID3 data")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "gs://sirius-audio/audio/meeting.mp3", body["audioUrl"])
	assert.Equal(t, "meeting.mp3", svc.uploadName)
	assert.Equal(t, "ID3 data", svc.uploadData)
}

func TestUploadAudio_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, body := postAudio(t, srv.URL+"/api/transcription/upload", "file", "meeting.mp3", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, messageAudioMissing, body["error"])

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/transcription/upload", `{"audio":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, messageInvalidBody, body["error"])
}

func TestUploadAudio_StoreFailure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{err: fmt.Errorf("%w: upload audio: bucket missing", meeting.ErrUnavailable)})

	resp, body := postAudio(t, srv.URL+"/api/transcription/upload", "audio", "meeting.mp3", "x")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, messageUpstreamError, body["error"])
}

func TestLiveTranscriptionRoutes(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{})

	resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/calls/room-1/transcription/start", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/calls/room-1/transcription/stop", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, messageTranscriptionStop, body["message"])
}

func TestChatRoutes(t *testing.T) {
	svc := &fakeService{}
	srv, _ := newTestServer(t, svc)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/chat/room-1?limit=20&offset=40", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, 20, svc.historyLimit)
	assert.Equal(t, 40, svc.historyOffset)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/chat/room-1?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/chat/room-1", `{"sender_name":"Ana","sender_cedula":"123","message_text":"hola"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "room-1", svc.chatRequest.RoomID)
	assert.Equal(t, "msg-1", body["data"].(map[string]any)["id"])

	resp, _ = doRequest(t, http.MethodPut, srv.URL+"/api/chat/room-1", `{"messageId":"msg-1","message_text":"x","edited_by_cedula":"999"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/chat/room-1?messageId=msg-1&cedula=123", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"msg-1"}, svc.deleted)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, m := newTestServer(t, &fakeService{})

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /healthz", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(unmatchedRoute, "404")))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatStream_SnapshotThenDedupedEvents(t *testing.T) {
	events := make(chan chat.Event, 4)
	svc := &fakeService{
		history: []repository.ChatMessage{{ID: "a", RoomID: "room-1", MessageText: "hi"}},
		events:  events,
	}
	srv, _ := newTestServer(t, svc)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/room-1/stream?cedula=123"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var snapshot streamFrame
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, frameSnapshot, snapshot.Type)
	require.Len(t, snapshot.Messages, 1)

	// duplicate of history, own insert, then a real insert
	events <- chat.Event{Type: chat.EventInsert, RoomID: "room-1", Message: repository.ChatMessage{ID: "a", RoomID: "room-1"}}
	events <- chat.Event{Type: chat.EventInsert, RoomID: "room-1", Message: repository.ChatMessage{ID: "b", RoomID: "room-1", SenderCedula: "123"}}
	events <- chat.Event{Type: chat.EventInsert, RoomID: "room-1", Message: repository.ChatMessage{ID: "c", RoomID: "room-1", SenderCedula: "456"}}
	events <- chat.Event{Type: chat.EventDelete, RoomID: "room-1", Message: repository.ChatMessage{ID: "a", RoomID: "room-1"}}

	var first, second streamFrame
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "INSERT", first.Type)
	assert.Equal(t, "c", first.Message.ID)
	assert.Equal(t, "DELETE", second.Type)
	assert.Equal(t, "a", second.Message.ID)
}
