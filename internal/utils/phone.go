package utils

import (
	"strings"
	"unicode"
)

// MinPhoneDigits is the shortest number accepted as a send target.
const MinPhoneDigits = 10

const maxPhoneDigits = 15

// Digits strips everything but ASCII digits. A WhatsApp JID suffix
// ("5511999999999@s.whatsapp.net") is dropped first.
func Digits(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SendablePhone reports whether the digit count is acceptable for a send attempt.
func SendablePhone(s string) bool {
	return len(Digits(s)) >= MinPhoneDigits
}

// ValidPhone accepts 10-11 digit local numbers or E.164 numbers up to 15 digits.
func ValidPhone(s string) bool {
	n := len(Digits(s))
	return n >= MinPhoneDigits && n <= maxPhoneDigits
}

// IsGroupJID reports whether the JID addresses a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
