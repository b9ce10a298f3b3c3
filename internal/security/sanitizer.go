package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mroshb/anon_chat/pkg/utils"
)

// Placeholders substituted for contact identifiers
const (
	PlaceholderUserRef  = "[user]"
	PlaceholderLink     = "[link]"
	PlaceholderEmail    = "[email]"
	PlaceholderUsername = "[username]"
	PlaceholderPhone    = "[phone]"
)

// MaxMessageLength is the Telegram limit for a text message.
const MaxMessageLength = 4096

var (
	htmlPolicy = bluemonday.StrictPolicy()

	userRefRegex  = regexp.MustCompile(`(?i)tg://(?:user\?id=|openmessage\?user_id=|resolve\?domain=)[\w=&]+`)
	linkRegex     = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:t\.me|telegram\.me|telegram\.dog)/[\w+\-/?=&%.]+`)
	emailRegex    = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.[a-z]{2,}`)
	usernameRegex = regexp.MustCompile(`@[A-Za-z][A-Za-z0-9_]{4,31}`)
	phoneRegex    = regexp.MustCompile(`\+?\(?\d(?:[\s\-().]{0,2}\d){6,14}`)
)

type redaction struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: emails before usernames, links before bare handles.
var redactions = []redaction{
	{userRefRegex, PlaceholderUserRef},
	{linkRegex, PlaceholderLink},
	{emailRegex, PlaceholderEmail},
	{usernameRegex, PlaceholderUsername},
	{phoneRegex, PlaceholderPhone},
}

// Redact replaces usernames, Telegram links, user references, emails and
// phone-like digit runs with placeholders. changed is true when anything
// was replaced.
func Redact(input string) (output string, changed bool) {
	if input == "" {
		return input, false
	}

	// Zero-width characters would otherwise split a contact across matches
	output = utils.StripInvisible(utils.NormalizeDigits(input))
	for _, r := range redactions {
		if r.pattern.MatchString(output) {
			output = r.pattern.ReplaceAllString(output, r.placeholder)
			changed = true
		}
	}

	if !changed {
		// Keep the sender's original digits when nothing was redacted
		return input, false
	}
	return TruncateRunes(output, MaxMessageLength), true
}

// TruncateRunes shortens s to at most max runes.
func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return TruncateRunes(input, 1000)
}

// SanitizeHTML strips tags and escapes the rest so the value is safe inside
// an HTML-mode message.
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}
