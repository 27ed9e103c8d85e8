package memory

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

// MaxDocumentIDLength is the engine limit on document id bytes.
const MaxDocumentIDLength = 512

// EncodeID maps an arbitrary record id to an engine-safe document id:
// URL-safe base64 of the UTF-8 bytes, with '=' padding replaced by '.'.
func EncodeID(id string) string {
	return strings.ReplaceAll(base64.URLEncoding.EncodeToString([]byte(id)), "=", ".")
}

// DecodeID reverses EncodeID.
func DecodeID(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(strings.ReplaceAll(token, ".", "="))
	if err != nil {
		return "", fmt.Errorf("decode document id %q: %w: %w", token, domain.ErrInvalidRecord, err)
	}
	return string(raw), nil
}
