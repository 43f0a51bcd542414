package chat

import (
	"sync"

	"github.com/foxseedlab/sirius/internal/repository"
)

// Feed is one viewer's copy of a room's chat. Change events are folded into
// it so a message is never shown twice.
type Feed struct {
	mu         sync.Mutex
	roomID     string
	selfCedula string
	messages   []repository.ChatMessage
	index      map[string]int
}

func NewFeed(roomID, selfCedula string, history []repository.ChatMessage) *Feed {
	f := &Feed{
		roomID:     roomID,
		selfCedula: selfCedula,
		messages:   make([]repository.ChatMessage, 0, len(history)),
		index:      make(map[string]int, len(history)),
	}
	for _, m := range history {
		if _, ok := f.index[m.ID]; ok {
			continue
		}
		f.index[m.ID] = len(f.messages)
		f.messages = append(f.messages, m)
	}
	return f
}

// Apply folds ev into the feed and reports whether the viewer's list
// changed.
func (f *Feed) Apply(ev Event) bool {
	if ev.RoomID != f.roomID || ev.Message.ID == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pos, exists := f.index[ev.Message.ID]
	switch ev.Type {
	case EventInsert:
		if exists {
			return false
		}
		// The sender's own client already shows the message it just sent.
		if f.selfCedula != "" && ev.Message.SenderCedula == f.selfCedula {
			return false
		}
		f.index[ev.Message.ID] = len(f.messages)
		f.messages = append(f.messages, ev.Message)
		return true
	case EventUpdate:
		if !exists {
			return false
		}
		f.messages[pos] = ev.Message
		return true
	case EventDelete:
		if !exists {
			return false
		}
		f.messages = append(f.messages[:pos], f.messages[pos+1:]...)
		delete(f.index, ev.Message.ID)
		for i := pos; i < len(f.messages); i++ {
			f.index[f.messages[i].ID] = i
		}
		return true
	default:
		return false
	}
}

func (f *Feed) Messages() []repository.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.ChatMessage, len(f.messages))
	copy(out, f.messages)
	return out
}
