package telegram

import (
	"strings"
	"testing"

	"github.com/mroshb/anon_chat/internal/handlers"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCardRequests_TextOnly(t *testing.T) {
	reqs := profileCardRequests(5, services.ProfileCard{Text: "<b>Profile</b>"})

	require.Len(t, reqs, 1)
	assert.Equal(t, "sendMessage", reqs[0].Method)
	assert.Equal(t, "5", reqs[0].Params["chat_id"])
	assert.Equal(t, "<b>Profile</b>", reqs[0].Params["text"])
	assert.Equal(t, "true", reqs[0].Params["protect_content"])
}

func TestProfileCardRequests_LastPhotoCarriesCaption(t *testing.T) {
	reqs := profileCardRequests(5, services.ProfileCard{Text: "card", Photos: []string{"a", "b", "c"}})

	require.Len(t, reqs, 3)
	for i, req := range reqs {
		assert.Equal(t, "sendPhoto", req.Method)
		assert.Equal(t, "true", req.Params["protect_content"])
		_, hasCaption := req.Params["caption"]
		assert.Equal(t, i == 2, hasCaption)
	}
	assert.Equal(t, "c", reqs[2].Params["photo"])
	assert.Equal(t, "card", reqs[2].Params["caption"])
}

func TestProfileCardRequests_LongTextFollowsPhotos(t *testing.T) {
	long := strings.Repeat("x", handlers.MaxCaptionLength+1)
	reqs := profileCardRequests(5, services.ProfileCard{Text: long, Photos: []string{"a"}})

	require.Len(t, reqs, 2)
	assert.Equal(t, "sendPhoto", reqs[0].Method)
	_, hasCaption := reqs[0].Params["caption"]
	assert.False(t, hasCaption)
	assert.Equal(t, "sendMessage", reqs[1].Method)
	assert.Equal(t, long, reqs[1].Params["text"])
}

func TestMainMenuKeyboard(t *testing.T) {
	kb := MainMenuKeyboard(false, true)
	require.Len(t, kb.Keyboard, 3)
	assert.Equal(t, handlers.BtnFindPartner, kb.Keyboard[0][0].Text)
	assert.Equal(t, handlers.BtnRevealOn, kb.Keyboard[1][1].Text)
	assert.Len(t, kb.Keyboard[2], 1)

	admin := MainMenuKeyboard(true, false)
	assert.Equal(t, handlers.BtnRevealOff, admin.Keyboard[1][1].Text)
	assert.Equal(t, handlers.BtnAdminStats, admin.Keyboard[2][1].Text)
}

func TestNormalizeButton(t *testing.T) {
	assert.Equal(t, handlers.BtnHelp, normalizeButton(" "+handlers.BtnHelp+"\u200c"))
}
