package otp

import "strings"

// RFC 4648 Base32 alphabet. Secrets are presented without '=' padding
// because authenticator apps do not expect any.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// EncodeBase32 encodes src using the RFC 4648 alphabet without padding.
// The final partial 5-bit group, if any, is left-shifted and zero-filled.
func EncodeBase32(src []byte) string {
	var b strings.Builder
	b.Grow((len(src)*8 + 4) / 5)

	var buf uint32
	var bits uint
	for _, c := range src {
		buf = buf<<8 | uint32(c)
		bits += 8
		for bits >= 5 {
			bits -= 5
			b.WriteByte(base32Alphabet[(buf>>bits)&31])
		}
	}
	if bits > 0 {
		b.WriteByte(base32Alphabet[(buf<<(5-bits))&31])
	}
	return b.String()
}

// DecodeBase32 decodes a Base32 string back to bytes. Decoding is
// case-insensitive and best-effort: characters outside the alphabet
// (spaces, dashes, '=' padding) are skipped, and trailing bits that do
// not fill a whole byte are discarded. It only needs to round-trip
// secrets produced by EncodeBase32, so malformed input is not an error.
func DecodeBase32(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)

	var buf uint32
	var bits uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		var v uint32
		switch {
		case c >= 'A' && c <= 'Z':
			v = uint32(c - 'A')
		case c >= 'a' && c <= 'z':
			v = uint32(c - 'a')
		case c >= '2' && c <= '7':
			v = uint32(c-'2') + 26
		default:
			continue
		}
		buf = buf<<5 | v
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}
	return out
}
