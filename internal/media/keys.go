package media

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
)

// NormalizeText is the speech cache key: trimmed and case-folded.
func NormalizeText(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

// Fingerprint is the transcript cache key: a hash of the whole payload.
func Fingerprint(audio []byte) string {
	sum := blake2b.Sum256(audio)
	return hex.EncodeToString(sum[:])
}

func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
