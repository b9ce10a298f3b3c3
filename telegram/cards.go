package telegram

import (
	"strconv"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/anon_chat/internal/handlers"
	"github.com/mroshb/anon_chat/internal/services"
)

type apiRequest struct {
	Method string
	Params tgbotapi.Params
}

func protectedParams(chatID int64) tgbotapi.Params {
	params := tgbotapi.Params{"chat_id": strconv.FormatInt(chatID, 10)}
	params.AddBool("protect_content", true)
	return params
}

// profileCardRequests renders a card as one text message or a run of
// photos with the text as the last caption. Text that does not fit in a
// caption follows the photos as its own message.
func profileCardRequests(chatID int64, card services.ProfileCard) []apiRequest {
	textRequest := func() apiRequest {
		params := protectedParams(chatID)
		params["text"] = card.Text
		params["parse_mode"] = tgbotapi.ModeHTML
		return apiRequest{Method: "sendMessage", Params: params}
	}

	if len(card.Photos) == 0 {
		return []apiRequest{textRequest()}
	}

	captionFits := utf8.RuneCountInString(card.Text) <= handlers.MaxCaptionLength

	requests := make([]apiRequest, 0, len(card.Photos)+1)
	for i, photo := range card.Photos {
		params := protectedParams(chatID)
		params["photo"] = photo
		if i == len(card.Photos)-1 && captionFits {
			params.AddNonEmpty("caption", card.Text)
			params["parse_mode"] = tgbotapi.ModeHTML
		}
		requests = append(requests, apiRequest{Method: "sendPhoto", Params: params})
	}

	if !captionFits {
		requests = append(requests, textRequest())
	}
	return requests
}
