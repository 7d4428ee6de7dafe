package payment

import "strings"

// Input masks for card fields.  They only reformat what was typed; they do
// not validate it.

func digits(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if b.Len() == max {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber keeps up to 16 digits in groups of four.
func FormatCardNumber(s string) string {
	d := digits(s, 16)
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry renders up to four digits as MM/YY.
func FormatExpiry(s string) string {
	d := digits(s, 4)
	if len(d) > 2 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// FormatCVV keeps up to three digits.
func FormatCVV(s string) string { return digits(s, 3) }
