package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// SendMessage sends a text message to a chat. chatID is either a @username or
// the numeric peer ID of a dialog; numeric peers are resolved through the
// dialog list because bare IDs carry no access hash.
func (c *MTProtoClient) SendMessage(ctx context.Context, chatID, text string) (*domain.SentMessage, error) {
	api, err := c.liveAPI()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	peer, err := c.resolvePeer(ctx, chatID)
	if err != nil {
		return nil, err
	}

	updates, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: randomID(),
	})
	if err != nil {
		c.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to send message")
		return nil, c.classifyError(err)
	}

	sent := sentMessageFromUpdates(updates)
	c.logger.Debug().Str("chat_id", chatID).Int("message_id", sent.MessageID).Msg("message sent")
	return sent, nil
}

// Dialogs retrieves up to limit recent dialogs in Telegram's order.
func (c *MTProtoClient) Dialogs(ctx context.Context, limit int) ([]domain.ChatSummary, error) {
	api, err := c.liveAPI()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	result, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      limit,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch dialogs")
		return nil, c.classifyError(err)
	}

	dialogs, messages, chats, users, err := unpackDialogs(result)
	if err != nil {
		return nil, err
	}

	names := peerNames(chats, users)
	previews := messagePreviews(messages)

	summaries := make([]domain.ChatSummary, 0, len(dialogs))
	for _, d := range dialogs {
		dialog, ok := d.(*tg.Dialog)
		if !ok {
			continue
		}
		id := peerID(dialog.Peer)
		summary := domain.ChatSummary{
			ID:          id,
			Name:        names[id],
			UnreadCount: dialog.UnreadCount,
		}
		if preview, ok := previews[previewKey{peer: id, msg: dialog.TopMessage}]; ok {
			summary.LastMessage = preview.text
			date := preview.date
			summary.Date = &date
		}
		summaries = append(summaries, summary)
	}

	c.logger.Debug().Int("count", len(summaries)).Msg("fetched dialogs")
	return summaries, nil
}

// resolvePeer maps a chat identifier to an input peer. @usernames go through
// contacts resolution; numeric IDs are looked up in the dialog list to
// recover their access hash.
func (c *MTProtoClient) resolvePeer(ctx context.Context, chatID string) (tg.InputPeerClass, error) {
	if strings.HasPrefix(chatID, "@") {
		return c.resolveUsername(ctx, strings.TrimPrefix(chatID, "@"))
	}
	id, ok := parseNumericID(chatID)
	if !ok {
		return nil, fmt.Errorf("invalid chat ID %q: must be @username or numeric", chatID)
	}
	return c.resolveDialogPeer(ctx, id)
}

func (c *MTProtoClient) resolveUsername(ctx context.Context, username string) (tg.InputPeerClass, error) {
	api, err := c.liveAPI()
	if err != nil {
		return nil, err
	}

	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		c.logger.Error().Err(err).Str("username", username).Msg("failed to resolve username")
		return nil, c.classifyError(err)
	}

	for _, user := range resolved.Users {
		if u, ok := user.(*tg.User); ok {
			return &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}, nil
		}
	}
	for _, chat := range resolved.Chats {
		switch peer := chat.(type) {
		case *tg.Channel:
			return &tg.InputPeerChannel{ChannelID: peer.ID, AccessHash: peer.AccessHash}, nil
		case *tg.Chat:
			return &tg.InputPeerChat{ChatID: peer.ID}, nil
		}
	}

	return nil, fmt.Errorf("username %q did not resolve to a usable peer", username)
}

// resolveDialogPeer finds a numeric peer ID in the recent dialog list.
func (c *MTProtoClient) resolveDialogPeer(ctx context.Context, id int64) (tg.InputPeerClass, error) {
	api, err := c.liveAPI()
	if err != nil {
		return nil, err
	}

	result, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      100,
	})
	if err != nil {
		return nil, c.classifyError(err)
	}

	_, _, chats, users, err := unpackDialogs(result)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if u, ok := user.(*tg.User); ok && u.ID == id {
			return &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}, nil
		}
	}
	for _, chat := range chats {
		switch peer := chat.(type) {
		case *tg.Channel:
			if peer.ID == id {
				return &tg.InputPeerChannel{ChannelID: peer.ID, AccessHash: peer.AccessHash}, nil
			}
		case *tg.Chat:
			if peer.ID == id {
				return &tg.InputPeerChat{ChatID: peer.ID}, nil
			}
		}
	}

	return nil, fmt.Errorf("chat %d not found in recent dialogs", id)
}

// unpackDialogs flattens the dialog result classes.
func unpackDialogs(result tg.MessagesDialogsClass) ([]tg.DialogClass, []tg.MessageClass, []tg.ChatClass, []tg.UserClass, error) {
	switch dialogs := result.(type) {
	case *tg.MessagesDialogs:
		return dialogs.Dialogs, dialogs.Messages, dialogs.Chats, dialogs.Users, nil
	case *tg.MessagesDialogsSlice:
		return dialogs.Dialogs, dialogs.Messages, dialogs.Chats, dialogs.Users, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unexpected dialogs type %T", result)
	}
}

// peerNames builds a lookup of display names keyed by bare peer ID.
func peerNames(chats []tg.ChatClass, users []tg.UserClass) map[int64]string {
	names := make(map[int64]string, len(chats)+len(users))
	for _, chat := range chats {
		switch peer := chat.(type) {
		case *tg.Channel:
			names[peer.ID] = peer.Title
		case *tg.Chat:
			names[peer.ID] = peer.Title
		}
	}
	for _, user := range users {
		if u, ok := user.(*tg.User); ok {
			names[u.ID] = strings.TrimSpace(u.FirstName + " " + u.LastName)
		}
	}
	return names
}

type previewKey struct {
	peer int64
	msg  int
}

type preview struct {
	text string
	date time.Time
}

// messagePreviews indexes top messages by (peer, message ID).
func messagePreviews(messages []tg.MessageClass) map[previewKey]preview {
	previews := make(map[previewKey]preview, len(messages))
	for _, m := range messages {
		message, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		previews[previewKey{peer: peerID(message.PeerID), msg: message.ID}] = preview{
			text: message.Message,
			date: time.Unix(int64(message.Date), 0),
		}
	}
	return previews
}

// sentMessageFromUpdates extracts the assigned message ID and server date
// from a send-message result.
func sentMessageFromUpdates(updates tg.UpdatesClass) *domain.SentMessage {
	sent := &domain.SentMessage{Date: time.Now().UTC()}

	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		sent.MessageID = u.ID
		sent.Date = time.Unix(int64(u.Date), 0)
	case *tg.Updates:
		for _, update := range u.Updates {
			if id, ok := update.(*tg.UpdateMessageID); ok {
				sent.MessageID = id.ID
				break
			}
		}
		if u.Date != 0 {
			sent.Date = time.Unix(int64(u.Date), 0)
		}
	case *tg.UpdatesCombined:
		for _, update := range u.Updates {
			if id, ok := update.(*tg.UpdateMessageID); ok {
				sent.MessageID = id.ID
				break
			}
		}
		if u.Date != 0 {
			sent.Date = time.Unix(int64(u.Date), 0)
		}
	}

	return sent
}
