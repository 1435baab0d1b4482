package handlers

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mediaGroupBuffer collects the separate updates Telegram delivers for one
// media group. Each new photo resets the settle timer; when it fires the
// whole group is handed to the flush callback.
type mediaGroupBuffer struct {
	mu     sync.Mutex
	groups map[string]*pendingGroup
	settle time.Duration
}

type pendingGroup struct {
	photos []*tgbotapi.Message
	timer  *time.Timer
}

func newMediaGroupBuffer(settle time.Duration) *mediaGroupBuffer {
	return &mediaGroupBuffer{
		groups: make(map[string]*pendingGroup),
		settle: settle,
	}
}

// Add buffers one member of a media group. flush runs on the timer goroutine
// once the group has settled.
func (b *mediaGroupBuffer) Add(m *tgbotapi.Message, flush func(photos []*tgbotapi.Message)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	groupID := m.MediaGroupID
	group, ok := b.groups[groupID]
	if !ok {
		group = &pendingGroup{}
		b.groups[groupID] = group
	}
	group.photos = append(group.photos, m)

	if group.timer != nil {
		group.timer.Stop()
	}
	group.timer = time.AfterFunc(b.settle, func() {
		photos := b.take(groupID)
		if len(photos) > 0 {
			flush(photos)
		}
	})
}

// take removes and returns a settled group.
func (b *mediaGroupBuffer) take(groupID string) []*tgbotapi.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	group, ok := b.groups[groupID]
	if !ok {
		return nil
	}
	delete(b.groups, groupID)
	return group.photos
}
