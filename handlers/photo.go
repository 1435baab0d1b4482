package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aziz-turgunoff/kitob-tg-bot/listing"
	"github.com/aziz-turgunoff/kitob-tg-bot/models"
	"github.com/aziz-turgunoff/kitob-tg-bot/ocr"
	"github.com/aziz-turgunoff/kitob-tg-bot/utils"
)

const (
	textMissing  = "❌ *Matn yuborilmadi!*\n\nRasm bilan birga matnni ham yuboring va qaytadan urinib ko'ring."
	textTooShort = "❌ Kamida 8 qator matn kerak. Rasm bilan birga to'liq matnni yuboring va qaytadan urinib ko'ring."
	publishError = "❌ Kanalga joylashtirishda xatolik. Qaytadan urinib ko'ring."
)

// handlePhoto routes a photo update: media-group members are buffered until
// the group settles, single photos are published directly. Publishing is
// long-latency channel I/O (backoff, mandated throttle waits), so it runs
// off the update loop; media groups already flush on the settle timer's
// goroutine.
func (h *Handler) handlePhoto(ctx context.Context, m *tgbotapi.Message) {
	if m.MediaGroupID != "" {
		h.groups.Add(m, func(photos []*tgbotapi.Message) {
			h.processMediaGroup(ctx, photos)
		})
		return
	}
	go h.processSinglePhoto(ctx, m)
}

func (h *Handler) processSinglePhoto(ctx context.Context, m *tgbotapi.Message) {
	fileID := largestPhoto(m)
	if fileID == "" {
		h.reply(m, "❌ Rasm topilmadi.")
		return
	}

	text, ok := h.submissionText(ctx, m, fileID)
	if !ok {
		return
	}
	h.publishListing(ctx, m, text, []string{fileID})
}

// processMediaGroup publishes a settled media group as one listing: the
// caption comes from whichever member carries one, the media from every
// member in arrival order.
func (h *Handler) processMediaGroup(ctx context.Context, photos []*tgbotapi.Message) {
	first := photos[0]

	var caption string
	fileIDs := make([]string, 0, len(photos))
	for _, m := range photos {
		if m.Caption != "" && caption == "" {
			caption = m.Caption
		}
		if id := largestPhoto(m); id != "" {
			fileIDs = append(fileIDs, id)
		}
	}
	if len(fileIDs) == 0 {
		h.reply(first, "❌ Rasm topilmadi.")
		return
	}

	if caption == "" {
		text, err := h.extractor.ExtractText(ctx, fileIDs[0])
		if err != nil {
			h.reply(first, textMissing)
			return
		}
		caption = text
	}
	h.publishListing(ctx, first, caption, fileIDs)
}

// submissionText returns the listing text for a submission: the caption when
// present, otherwise whatever the extraction collaborator can produce.
func (h *Handler) submissionText(ctx context.Context, m *tgbotapi.Message, fileID string) (string, bool) {
	if m.Caption != "" {
		return m.Caption, true
	}
	text, err := h.extractor.ExtractText(ctx, fileID)
	if err != nil {
		if !errors.Is(err, ocr.ErrExtractionFailed) {
			utils.Warn("handlers", "extract", err.Error())
		}
		h.reply(m, textMissing)
		return "", false
	}
	return text, true
}

// publishListing validates the caption, publishes to the channel and records
// the post. The store is written only after the channel confirmed message
// ids.
func (h *Handler) publishListing(ctx context.Context, m *tgbotapi.Message, rawText string, fileIDs []string) {
	parsed, err := listing.Parse(rawText)
	if err != nil {
		h.reply(m, textTooShort)
		return
	}
	caption := listing.Format(parsed, h.contact)

	var messageIDs []int
	err = h.policy.Do(ctx, "publish listing", func() error {
		ids, err := h.gateway.SendPost(ctx, caption, fileIDs)
		if err != nil {
			return err
		}
		messageIDs = ids
		return nil
	})
	if err != nil || len(messageIDs) == 0 {
		utils.Error("handlers", "publish", fmt.Sprintf("user %d: %v", m.From.ID, err))
		h.reply(m, publishError)
		return
	}

	post := &models.Post{
		UserID:            m.From.ID,
		MessageID:         m.MessageID,
		ChannelMessageIDs: messageIDs,
		TextContent:       rawText,
		FileIDs:           fileIDs,
		CreatedAt:         time.Now().UTC(),
		Status:            models.StatusActive,
	}
	if _, err := h.store.Save(ctx, post); err != nil {
		// Published but not recorded: the listing will never be reposted.
		utils.Error("handlers", "save", fmt.Sprintf("post for user %d published but not saved: %v", m.From.ID, err))
		h.reply(m, "⚠️ Kitob kanalga joylandi, lekin saqlashda xatolik bo'ldi. Admin bilan bog'laning.")
		return
	}

	if len(fileIDs) > 1 {
		h.reply(m, fmt.Sprintf("✅ Kitob muvaffaqiyatli kanalga joylashtirildi! (%d rasm)", len(fileIDs)))
		return
	}
	h.reply(m, "✅ Kitob muvaffaqiyatli kanalga joylashtirildi!")
}

// largestPhoto picks the highest-resolution rendition Telegram offers.
func largestPhoto(m *tgbotapi.Message) string {
	if len(m.Photo) == 0 {
		return ""
	}
	return m.Photo[len(m.Photo)-1].FileID
}
