package utils

import "strings"

// FormatPhoneE164 normalizes a phone number to E.164 (+1XXXXXXXXXX for US).
// Ten digits are assumed to be US national format; eleven digits starting
// with 1 already carry the US country code.
func FormatPhoneE164(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	case len(d) >= 11:
		return "+" + d
	default:
		if strings.HasPrefix(phone, "+") {
			return phone
		}
		return "+" + d
	}
}

// NormalizePhoneSuffix returns the last ten digits of a phone number,
// used to match inbound SMS sender numbers against stored references.
func NormalizePhoneSuffix(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 10 {
		return d[len(d)-10:]
	}
	return d
}
