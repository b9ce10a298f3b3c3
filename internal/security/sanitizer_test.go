package security

import (
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantChanged bool
	}{
		{
			name:        "Email",
			input:       "mail me at john.doe@example.com",
			want:        "mail me at [email]",
			wantChanged: true,
		},
		{
			name:        "Email and phone",
			input:       "email a@b.co phone 89161234567",
			want:        "email [email] phone [phone]",
			wantChanged: true,
		},
		{
			name:        "Formatted phone",
			input:       "call +1 (555) 123-4567 tonight",
			want:        "call [phone] tonight",
			wantChanged: true,
		},
		{
			name:        "Persian digits phone",
			input:       "۰۹۱۲۳۴۵۶۷۸۹",
			want:        "[phone]",
			wantChanged: true,
		},
		{
			name:        "Phone split by zero-width spaces",
			input:       "+7\u200b9\u200b9\u200b9\u200b1\u200b2\u200b3\u200b4\u200b5\u200b6\u200b7",
			want:        "[phone]",
			wantChanged: true,
		},
		{
			name:        "Phone with a zero-width joiner inside",
			input:       "call +7999\u200d1234567",
			want:        "call [phone]",
			wantChanged: true,
		},
		{
			name:        "Email split by zero-width space",
			input:       "john\u200b@example.com",
			want:        "[email]",
			wantChanged: true,
		},
		{
			name:        "Username",
			input:       "add me @john_smith",
			want:        "add me [username]",
			wantChanged: true,
		},
		{
			name:        "Telegram link",
			input:       "join https://t.me/somechannel now",
			want:        "join [link] now",
			wantChanged: true,
		},
		{
			name:        "Bare telegram.me link",
			input:       "telegram.me/joinchat/AAAAbbbb",
			want:        "[link]",
			wantChanged: true,
		},
		{
			name:        "User reference",
			input:       "tg://user?id=123456789",
			want:        "[user]",
			wantChanged: true,
		},
		{
			name:        "Email with underscore is not a username",
			input:       "john_smith@gmail.com",
			want:        "[email]",
			wantChanged: true,
		},
		{
			name:        "Time and small numbers",
			input:       "see you at 10:30, I have 2 cats and 100 fish",
			want:        "see you at 10:30, I have 2 cats and 100 fish",
			wantChanged: false,
		},
		{
			name:        "Short handle",
			input:       "@abc",
			want:        "@abc",
			wantChanged: false,
		},
		{
			name:        "Empty",
			input:       "",
			want:        "",
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Redact(tt.input)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("Redact(%q) changed = %v, want %v", tt.input, changed, tt.wantChanged)
			}
		})
	}
}

func TestRedact_KeepsOriginalDigitsWhenUnchanged(t *testing.T) {
	input := "۱۲ cats"
	got, changed := Redact(input)
	if changed || got != input {
		t.Errorf("Redact(%q) = %q, %v", input, got, changed)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("سلام دنیا", 4); got != "سلام" {
		t.Errorf("TruncateRunes() = %q, want %q", got, "سلام")
	}
	if got := TruncateRunes("short", 10); got != "short" {
		t.Errorf("TruncateRunes() = %q, want short", got)
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("  hello\x00world  ")
	if got != "helloworld" {
		t.Errorf("SanitizeString() = %q, want helloworld", got)
	}

	long := strings.Repeat("a", 1500)
	if got := SanitizeString(long); len(got) != 1000 {
		t.Errorf("SanitizeString() length = %d, want 1000", len(got))
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML("<b>bold</b> & <script>alert(1)</script>")
	if strings.Contains(got, "<") || strings.Contains(got, "script>") {
		t.Errorf("SanitizeHTML() left markup: %q", got)
	}
	if !strings.Contains(got, "bold") {
		t.Errorf("SanitizeHTML() dropped text: %q", got)
	}
}
