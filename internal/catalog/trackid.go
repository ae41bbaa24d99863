package catalog

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// MintTrackID produces the public catalog identifier, e.g.
// RC-2026-7F3A-9B1C04. The middle segment is stable per user so a user's
// tracks sort together; the tail is random so ids never collide.
func MintTrackID(userID string, now time.Time) string {
	sum := md5.Sum([]byte(userID))
	userPart := hex.EncodeToString(sum[:])[:4]

	tail := make([]byte, 3)
	if _, err := rand.Read(tail); err != nil {
		// Fall back to the clock; uniqueness still holds per user per
		// nanosecond, which is enough for a display id.
		return fmt.Sprintf("RC-%d-%s-%09d", now.Year(), userPart, now.Nanosecond())
	}
	return strings.ToUpper(fmt.Sprintf("RC-%d-%s-%s", now.Year(), userPart, hex.EncodeToString(tail)))
}
