package utils

import "strings"

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4", "５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u200e", "",
	"\u200f", "",
	"\u2060", "",
	"\u00ad", "",
	"\ufeff", "",
)

// NormalizeDigits converts Persian, Arabic-Indic and full-width numerals to ASCII.
func NormalizeDigits(input string) string {
	return digitReplacer.Replace(input)
}

// StripInvisible removes zero-width and direction marks.
func StripInvisible(input string) string {
	return invisibleReplacer.Replace(input)
}

// NormalizeCommand prepares message text for matching against in-chat directives.
func NormalizeCommand(input string) string {
	return strings.ToLower(strings.TrimSpace(StripInvisible(input)))
}
