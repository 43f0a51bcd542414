package meeting

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/config"
	"github.com/foxseedlab/sirius/internal/metrics"
	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/foxseedlab/sirius/internal/transcriber"
	"github.com/foxseedlab/sirius/internal/videocall"
	"github.com/foxseedlab/sirius/internal/webhook"
)

type mockRepository struct {
	mu             sync.Mutex
	employees      map[string]repository.Employee
	meetings       map[string]*repository.Meeting
	createdInputs  []repository.CreateMeetingInput
	statusUpdates  []repository.MeetingStatus
	transcriptions []*repository.Transcription
	completed      []repository.CompleteTranscriptionInput
	messages       []repository.ChatMessage
	listLimit      int
	nextID         int
	setJobErr      error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		employees: make(map[string]repository.Employee),
		meetings:  make(map[string]*repository.Meeting),
	}
}

func (m *mockRepository) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockRepository) addMeeting(id, roomID string) *repository.Meeting {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := &repository.Meeting{ID: id, RoomID: roomID, Title: "Weekly sync", Status: repository.MeetingStatusScheduled}
	m.meetings[id] = mt
	return mt
}

func (m *mockRepository) VerifyEmployee(_ context.Context, cedula string) (*repository.Employee, error) {
	e, ok := m.employees[cedula]
	if !ok || !e.IsActive {
		return nil, nil
	}
	return &e, nil
}

func (m *mockRepository) ListEmployeesForInvite(_ context.Context, excludeCedula string) ([]repository.Employee, error) {
	out := make([]repository.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if e.Cedula != excludeCedula && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateMeeting(_ context.Context, input repository.CreateMeetingInput) (*repository.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdInputs = append(m.createdInputs, input)
	mt := &repository.Meeting{
		ID:              m.id("meeting"),
		Title:           input.Title,
		RoomID:          input.RoomID,
		MeetingType:     input.MeetingType,
		HostCedula:      input.HostCedula,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		Status:          repository.MeetingStatusScheduled,
	}
	m.meetings[mt.ID] = mt
	return mt, nil
}

func (m *mockRepository) GetMeetingByID(_ context.Context, meetingID string) (*repository.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.meetings[meetingID]
	if !ok {
		return nil, nil
	}
	cp := *mt
	return &cp, nil
}

func (m *mockRepository) GetMeetingByRoomID(_ context.Context, roomID string) (*repository.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range m.meetings {
		if mt.RoomID == roomID {
			cp := *mt
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) ListMeetingsForEmployee(_ context.Context, cedula string) ([]repository.Meeting, error) {
	var out []repository.Meeting
	for _, mt := range m.meetings {
		if mt.HostCedula == cedula {
			out = append(out, *mt)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateMeetingStatus(_ context.Context, meetingID string, status repository.MeetingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, status)
	if mt, ok := m.meetings[meetingID]; ok {
		mt.Status = status
	}
	return nil
}

func (m *mockRepository) CreateTranscription(_ context.Context, input repository.CreateTranscriptionInput) (*repository.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr := &repository.Transcription{
		ID:             m.id("tr"),
		MeetingID:      input.MeetingID,
		AudioURL:       input.AudioURL,
		StreamFilename: input.StreamFilename,
		LanguageCode:   input.LanguageCode,
		Status:         repository.TranscriptionStatusProcessing,
	}
	m.transcriptions = append(m.transcriptions, tr)
	cp := *tr
	return &cp, nil
}

func (m *mockRepository) findTranscription(match func(*repository.Transcription) bool) *repository.Transcription {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.transcriptions) - 1; i >= 0; i-- {
		if match(m.transcriptions[i]) {
			cp := *m.transcriptions[i]
			return &cp
		}
	}
	return nil
}

func (m *mockRepository) GetTranscription(_ context.Context, id string) (*repository.Transcription, error) {
	return m.findTranscription(func(t *repository.Transcription) bool { return t.ID == id }), nil
}

func (m *mockRepository) GetTranscriptionByJobID(_ context.Context, jobID string) (*repository.Transcription, error) {
	return m.findTranscription(func(t *repository.Transcription) bool { return t.ProviderJobID == jobID }), nil
}

func (m *mockRepository) GetLatestTranscriptionByMeeting(_ context.Context, meetingID string) (*repository.Transcription, error) {
	return m.findTranscription(func(t *repository.Transcription) bool { return t.MeetingID == meetingID }), nil
}

func (m *mockRepository) update(id string, fn func(*repository.Transcription)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transcriptions {
		if t.ID == id {
			fn(t)
		}
	}
}

func (m *mockRepository) SetTranscriptionJob(_ context.Context, id, jobID string) error {
	if m.setJobErr != nil {
		return m.setJobErr
	}
	m.update(id, func(t *repository.Transcription) { t.ProviderJobID = jobID })
	return nil
}

func (m *mockRepository) CompleteTranscription(_ context.Context, input repository.CompleteTranscriptionInput) error {
	m.mu.Lock()
	m.completed = append(m.completed, input)
	m.mu.Unlock()
	m.update(input.TranscriptionID, func(t *repository.Transcription) {
		wc := input.WordCount
		t.Status = repository.TranscriptionStatusCompleted
		t.TranscriptText = input.TranscriptText
		t.TranscriptJSONL = input.TranscriptJSONL
		t.Confidence = input.Confidence
		t.AudioDurationSec = input.AudioDurationSec
		t.WordCount = &wc
	})
	return nil
}

func (m *mockRepository) MarkTranscriptionFailed(_ context.Context, id string) error {
	m.update(id, func(t *repository.Transcription) { t.Status = repository.TranscriptionStatusFailed })
	return nil
}

func (m *mockRepository) ListChatMessages(_ context.Context, roomID string, limit, _ int) ([]repository.ChatMessage, error) {
	m.listLimit = limit
	var out []repository.ChatMessage
	for _, msg := range m.messages {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockRepository) InsertChatMessage(_ context.Context, input repository.InsertChatMessageInput) (*repository.ChatMessage, error) {
	msg := repository.ChatMessage{
		ID:           m.id("msg"),
		MeetingID:    input.MeetingID,
		RoomID:       input.RoomID,
		SenderCedula: input.SenderCedula,
		SenderName:   input.SenderName,
		SenderType:   input.SenderType,
		MessageText:  input.MessageText,
		MessageType:  input.MessageType,
		Metadata:     input.Metadata,
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockRepository) UpdateChatMessage(_ context.Context, input repository.UpdateChatMessageInput) (*repository.ChatMessage, error) {
	for i, msg := range m.messages {
		if msg.ID == input.MessageID && msg.RoomID == input.RoomID && msg.SenderCedula == input.SenderCedula {
			editedAt := input.EditedAt
			m.messages[i].MessageText = input.MessageText
			m.messages[i].IsEdited = true
			m.messages[i].EditedAt = &editedAt
			cp := m.messages[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) DeleteChatMessage(_ context.Context, roomID, messageID, senderCedula string) (*repository.ChatMessage, error) {
	for i, msg := range m.messages {
		if msg.ID == messageID && msg.RoomID == roomID && msg.SenderCedula == senderCedula {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return &msg, nil
		}
	}
	return nil, nil
}

type mockVideo struct {
	mu        sync.Mutex
	started   []string
	stopped   []string
	files     []videocall.TranscriptionFile
	listCalls int
	// filesAfter makes ListTranscriptions return nothing until the given
	// call number.
	filesAfter int
	contents   map[string]string
	fetchCalls int
	startErr   error
}

func (m *mockVideo) CreateUserToken(userID string, guest bool) (string, error) {
	return fmt.Sprintf("token:%s:%t", userID, guest), nil
}

func (m *mockVideo) StartTranscription(_ context.Context, callID string) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, callID)
	return nil
}

func (m *mockVideo) StopTranscription(_ context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = append(m.stopped, callID)
	return nil
}

func (m *mockVideo) ListTranscriptions(_ context.Context, _ string) ([]videocall.TranscriptionFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listCalls < m.filesAfter {
		return nil, nil
	}
	return m.files, nil
}

func (m *mockVideo) FetchTranscript(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	content, ok := m.contents[url]
	if !ok {
		return "", fmt.Errorf("no content for %s", url)
	}
	return content, nil
}

type mockTranscriber struct {
	submitErr error
	jobID     string
	result    *transcriber.Result
	polls     int
}

func (m *mockTranscriber) Submit(_ context.Context, _, _ string) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.jobID, nil
}

func (m *mockTranscriber) Poll(_ context.Context, _ string) (*transcriber.Result, error) {
	m.polls++
	return m.result, nil
}

type mockAudioStore struct {
	uploadErr   error
	filename    string
	contentType string
	data        string
}

func (m *mockAudioStore) Upload(_ context.Context, filename, contentType string, r io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.filename, m.contentType, m.data = filename, contentType, string(b)
	return "gs://sirius-audio/audio/" + filename, nil
}

type mockBroker struct {
	mu        sync.Mutex
	published []chat.Event
}

func (m *mockBroker) Publish(_ context.Context, ev chat.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, ev)
	return nil
}

func (m *mockBroker) Subscribe(_ context.Context, _ string) (chat.Subscription, error) {
	return &mockSubscription{events: make(chan chat.Event)}, nil
}

type mockSubscription struct {
	events chan chat.Event
	once   sync.Once
}

func (m *mockSubscription) Events() <-chan chat.Event { return m.events }
func (m *mockSubscription) Close() error {
	m.once.Do(func() { close(m.events) })
	return nil
}

type mockWebhookSender struct {
	mu       sync.Mutex
	payloads []webhook.TranscriptWebhookPayload
}

func (m *mockWebhookSender) SendTranscript(_ context.Context, payload webhook.TranscriptWebhookPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockWebhookSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

type fixture struct {
	svc     *Service
	repo    *mockRepository
	video   *mockVideo
	stt     *mockTranscriber
	audio   *mockAudioStore
	broker  *mockBroker
	webhook *mockWebhookSender
}

func newFixture() *fixture {
	cfg := &config.Config{
		DefaultTranscribeLanguage: "es-ES",
		TranscriptMergeGapMS:      5000,
		TranscriptPollInterval:    5 * time.Millisecond,
		TranscriptPollTimeout:     time.Second,
		ChatHistoryLimit:          50,
	}
	f := &fixture{
		repo:    newMockRepository(),
		video:   &mockVideo{contents: map[string]string{}},
		stt:     &mockTranscriber{jobID: "operations/job-1"},
		audio:   &mockAudioStore{},
		broker:  &mockBroker{},
		webhook: &mockWebhookSender{},
	}
	f.svc = NewService(cfg, f.repo, f.video, f.stt, f.audio, f.broker, f.webhook, metrics.NewNop())
	f.svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return f
}
