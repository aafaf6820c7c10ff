package distributedjob

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewToken returns a random 32-character hex token. Tokens are opaque
// correlation keys that the core never validates, so any caller-chosen
// string works; this is merely a convenient collision-free default.
func NewToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("distributedjob: read random token: %v", err))
	}
	return hex.EncodeToString(b[:])
}
