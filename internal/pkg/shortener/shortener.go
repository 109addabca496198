package shortener

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// base62 alphabet for references (0-9, a-z, A-Z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// codeAlphabet is used for event codes that clients type in by hand. It has no
// lowercase letters and none of 0/O and 1/I.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// DefaultCodeLength is the length of generated event codes.
const DefaultCodeLength = 8

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	return randomString(alphabet, length)
}

// GenerateEventCode creates a random access code for an event.
func GenerateEventCode(length int) (string, error) {
	return randomString(codeAlphabet, length)
}

// NormalizeEventCode trims input typed by a client.
func NormalizeEventCode(code string) string {
	return strings.TrimSpace(code)
}

func randomString(chars string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling avoids modulo bias: only bytes below the largest
	// multiple of len(chars) are used.
	limit := 256 - 256%len(chars)

	out := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out[written] = chars[int(b)%len(chars)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(out), nil
}

// EncodeID turns a numeric id into a short Base62 reference, e.g. the
// submission number shown to the client.
func EncodeID(id uint) string {
	if id == 0 {
		return string(alphabet[0])
	}

	base := uint(len(alphabet))
	var digits []byte
	for id > 0 {
		digits = append(digits, alphabet[id%base])
		id /= base
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// DecodeID reverses EncodeID. Characters outside the alphabet are skipped.
func DecodeID(encoded string) uint {
	base := uint(len(alphabet))
	var id uint

	for i := 0; i < len(encoded); i++ {
		value := strings.IndexByte(alphabet, encoded[i])
		if value == -1 {
			continue
		}
		id = id*base + uint(value)
	}

	return id
}
