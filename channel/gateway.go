// Package channel wraps the Telegram Bot API calls that touch the posting
// channel: publish, copy and delete. Every failure is returned as a
// classified *Error so callers never inspect raw API errors.
package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Gateway owns the channel side of the bot session. It is constructed once
// and injected wherever channel access is needed; there is no package-level
// session state.
type Gateway struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	username string // "@channel" form, used when no numeric id is configured
}

// NewGateway builds a gateway for the configured channel reference, which is
// either a numeric chat id or an "@username".
func NewGateway(bot *tgbotapi.BotAPI, channelRef string) (*Gateway, error) {
	g := &Gateway{bot: bot}
	switch {
	case strings.HasPrefix(channelRef, "@"):
		g.username = channelRef
	default:
		id, err := strconv.ParseInt(channelRef, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel reference %q: %w", channelRef, err)
		}
		g.chatID = id
	}
	return g, nil
}

func (g *Gateway) baseChat() tgbotapi.BaseChat {
	return tgbotapi.BaseChat{ChatID: g.chatID, ChannelUsername: g.username}
}

// SendPost publishes a listing to the channel: a single photo for one file
// id, a media group with the caption on the first item otherwise. It returns
// the full ordered set of confirmed message ids; a failed call surfaces no
// partial ids.
func (g *Gateway) SendPost(ctx context.Context, caption string, fileIDs []string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(fileIDs) == 0 {
		return nil, &Error{Kind: KindPermanent, Err: fmt.Errorf("post has no media to publish")}
	}

	if len(fileIDs) == 1 {
		photo := tgbotapi.PhotoConfig{
			BaseFile: tgbotapi.BaseFile{
				BaseChat: g.baseChat(),
				File:     tgbotapi.FileID(fileIDs[0]),
			},
			Caption:   caption,
			ParseMode: tgbotapi.ModeMarkdown,
		}
		msg, err := g.bot.Send(photo)
		if err != nil {
			return nil, classify(err)
		}
		return []int{msg.MessageID}, nil
	}

	media := make([]interface{}, 0, len(fileIDs))
	for i, fileID := range fileIDs {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fileID))
		if i == 0 {
			item.Caption = caption
			item.ParseMode = tgbotapi.ModeMarkdown
		}
		media = append(media, item)
	}
	group := tgbotapi.MediaGroupConfig{
		ChatID:          g.chatID,
		ChannelUsername: g.username,
		Media:           media,
	}
	msgs, err := g.bot.SendMediaGroup(group)
	if err != nil {
		return nil, classify(err)
	}
	ids := make([]int, len(msgs))
	for i, m := range msgs {
		ids[i] = m.MessageID
	}
	return ids, nil
}

// CopyMessage duplicates an existing channel message server-side and returns
// the new message id. Used for reposting rows that carry no file ids, where
// the content exists only on the channel.
func (g *Gateway) CopyMessage(ctx context.Context, messageID int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg := tgbotapi.CopyMessageConfig{
		BaseChat:            g.baseChat(),
		FromChatID:          g.chatID,
		FromChannelUsername: g.username,
		MessageID:           messageID,
	}
	res, err := g.bot.CopyMessage(cfg)
	if err != nil {
		return 0, classify(err)
	}
	return res.MessageID, nil
}

// DeleteMessage removes one channel message. An already-absent message comes
// back as a KindNotFound error, which callers must treat as a signal rather
// than a failure.
func (g *Gateway) DeleteMessage(ctx context.Context, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.DeleteMessageConfig{
		ChatID:          g.chatID,
		ChannelUsername: g.username,
		MessageID:       messageID,
	}
	if _, err := g.bot.Request(cfg); err != nil {
		return classify(err)
	}
	return nil
}
