package testutil

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

func RandomBytes(size int) []byte {
	bytes := make([]byte, size)
	_, _ = crand.Read(bytes)
	return bytes
}

// RandomTimedTextKey returns an upload key for a timed text track laid out the
// way Marsha names them: <video>/timedtexttrack/<track>/<stamp>_<lang>_<mode>.
func RandomTimedTextKey(lang string, mode string) string {
	return fmt.Sprintf("%s/timedtexttrack/%s/%d_%s_%s", uuid.NewString(), uuid.NewString(), 1_500_000_000+rand.IntN(100_000_000), lang, mode)
}

// RandomVideoKey returns an upload key for a video source file.
func RandomVideoKey() string {
	id := uuid.NewString()
	return fmt.Sprintf("%s/video/%s/%d", id, id, 1_500_000_000+rand.IntN(100_000_000))
}
