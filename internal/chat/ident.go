package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LegacyPrefix wraps numeric ids from the earlier identifier scheme into
// canonical string form.
const LegacyPrefix = "legacy-"

// The three recognized generated-id formats. Collision-resolved ids are a
// subset of the fallback family, which keeps a single validation pass
// possible, but the formats are kept distinct for classification.
var (
	baseIDPattern      = regexp.MustCompile(`^[0-9a-f]{8}$`)
	collisionIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9]+$`)
	fallbackIDPattern  = regexp.MustCompile(`^[0-9a-f]{8}-[a-z0-9]+$`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Id format classifications returned by IDFormat.
const (
	FormatBase      = "base"
	FormatCollision = "collision"
	FormatFallback  = "fallback"
	FormatInvalid   = "invalid"
)

// CanonicalID converts a caller-supplied id to canonical string form. Legacy
// numeric ids are wrapped with LegacyPrefix; anything else passes through
// unchanged. An all-digit id of exactly 8 characters is ambiguous between
// the two schemes and resolves as a generated base id; legacy counters never
// ran that high.
func CanonicalID(id string) string {
	if id == "" || baseIDPattern.MatchString(id) {
		return id
	}
	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return LegacyPrefix + id
	}
	return id
}

// LegacyNumber extracts the embedded number from a legacy-prefixed id. For
// any other id it derives a stable numeric surrogate, suitable for display
// only — collisions are possible.
func LegacyNumber(id string) int64 {
	if rest, ok := strings.CutPrefix(id, LegacyPrefix); ok {
		if n, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return n
		}
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return int64(h.Sum32())
}

// GenerateFromTitle derives a deterministic chat id from a title: the
// lower-hex sha256 digest of the case-folded, whitespace-collapsed title,
// truncated to length (default 8).
func GenerateFromTitle(title string, length int) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if length <= 0 {
		length = 8
	}
	folded := whitespacePattern.ReplaceAllString(strings.ToLower(trimmed), " ")
	sum := sha256.Sum256([]byte(folded))
	digest := hex.EncodeToString(sum[:])
	if length > len(digest) {
		length = len(digest)
	}
	return digest[:length], nil
}

// GenerateUniqueFromTitle returns the base digest when it is absent from
// existing, otherwise tries numeric suffixes -1 … -maxAttempts, and finally
// falls back to a time-and-randomness suffix. The fallback stays within the
// fallback id-format family; it is not guaranteed collision-free.
func GenerateUniqueFromTitle(title string, existing map[string]bool, maxAttempts int) (string, error) {
	base, err := GenerateFromTitle(title, 8)
	if err != nil {
		return "", err
	}
	if !existing[base] {
		return base, nil
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	for i := 1; i <= maxAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !existing[candidate] {
			return candidate, nil
		}
	}
	suffix := strconv.FormatInt(time.Now().UnixMilli(), 36) + randomSuffix(4)
	return base + "-" + strings.ToLower(suffix), nil
}

// randomSuffix returns n lower-hex characters of randomness.
func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// ValidChatID reports whether id belongs to one of the three generated-id
// formats.
func ValidChatID(id string) bool {
	return IDFormat(id) != FormatInvalid
}

// IDFormat classifies a generated chat id.
func IDFormat(id string) string {
	switch {
	case baseIDPattern.MatchString(id):
		return FormatBase
	case collisionIDPattern.MatchString(id):
		return FormatCollision
	case fallbackIDPattern.MatchString(id):
		return FormatFallback
	default:
		return FormatInvalid
	}
}

// BaseID extracts the 8-character digest from any valid generated id.
func BaseID(id string) (string, bool) {
	if !ValidChatID(id) {
		return "", false
	}
	return id[:8], true
}
