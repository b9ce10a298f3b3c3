package handlers

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/security"
)

// MaxCaptionLength is the Telegram limit for media captions.
const MaxCaptionLength = 1024

type RelayKind string

const (
	KindText        RelayKind = "text"
	KindPhoto       RelayKind = "photo"
	KindVideo       RelayKind = "video"
	KindAnimation   RelayKind = "animation"
	KindAudio       RelayKind = "audio"
	KindVoice       RelayKind = "voice"
	KindDocument    RelayKind = "document"
	KindSticker     RelayKind = "sticker"
	KindVideoNote   RelayKind = "video_note"
	KindUnsupported RelayKind = "unsupported"
	KindEmpty       RelayKind = "empty"
)

// RelayRequest is a ready-to-send Bot API call that delivers a copy of an
// inbound message to the peer with content protection on.
type RelayRequest struct {
	Kind     RelayKind
	Method   string
	Params   tgbotapi.Params
	Redacted bool
}

// ClassifyMessage reports which relay kind a message carries.
func ClassifyMessage(m *tgbotapi.Message) RelayKind {
	switch {
	case m.Contact != nil, m.Venue != nil, m.Location != nil, m.Poll != nil, m.Dice != nil, m.Game != nil:
		return KindUnsupported
	case m.Text != "":
		return KindText
	case len(m.Photo) > 0:
		return KindPhoto
	case m.Animation != nil:
		// Animations also arrive with Document set
		return KindAnimation
	case m.Video != nil:
		return KindVideo
	case m.Audio != nil:
		return KindAudio
	case m.Voice != nil:
		return KindVoice
	case m.Document != nil:
		return KindDocument
	case m.Sticker != nil:
		return KindSticker
	case m.VideoNote != nil:
		return KindVideoNote
	}
	return KindEmpty
}

// BuildRelay prepares the copy of m for target. ok is false for kinds that
// are not relayed.
func BuildRelay(m *tgbotapi.Message, target int64) (req RelayRequest, ok bool) {
	req = RelayRequest{
		Kind: ClassifyMessage(m),
		Params: tgbotapi.Params{
			"chat_id": strconv.FormatInt(target, 10),
		},
	}
	req.Params.AddBool("protect_content", true)

	switch req.Kind {
	case KindText:
		text, redacted := security.Redact(m.Text)
		req.Method = "sendMessage"
		req.Params["text"] = security.TruncateRunes(text, security.MaxMessageLength)
		req.Redacted = redacted
		return req, true
	case KindPhoto:
		req.Method = "sendPhoto"
		req.Params["photo"] = m.Photo[len(m.Photo)-1].FileID
	case KindAnimation:
		req.Method = "sendAnimation"
		req.Params["animation"] = m.Animation.FileID
	case KindVideo:
		req.Method = "sendVideo"
		req.Params["video"] = m.Video.FileID
	case KindAudio:
		req.Method = "sendAudio"
		req.Params["audio"] = m.Audio.FileID
	case KindVoice:
		req.Method = "sendVoice"
		req.Params["voice"] = m.Voice.FileID
	case KindDocument:
		req.Method = "sendDocument"
		req.Params["document"] = m.Document.FileID
	case KindSticker:
		req.Method = "sendSticker"
		req.Params["sticker"] = m.Sticker.FileID
		return req, true
	case KindVideoNote:
		req.Method = "sendVideoNote"
		req.Params["video_note"] = m.VideoNote.FileID
		return req, true
	default:
		return req, false
	}

	if m.Caption != "" {
		caption, redacted := security.Redact(m.Caption)
		req.Params.AddNonEmpty("caption", security.TruncateRunes(caption, MaxCaptionLength))
		req.Redacted = redacted
	}
	return req, true
}
