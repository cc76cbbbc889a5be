package provisioner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
)

const (
	// MaxIdentifierLength is the Postgres limit for database names.
	MaxIdentifierLength = 63
	DefaultPrefix       = "tenant"
	hashLength          = 8
)

// DatabaseName derives a stable, collision-resistant database name from a
// tenant id: <prefix>_<slug>_<first 8 hex chars of sha256(tenantID)>. The
// result is lowercase [a-z0-9_] and at most 63 characters.
func DatabaseName(prefix, tenantID string) string {
	prefix = sanitize(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := sanitize(tenantID)
	if base == "" {
		base = "shop"
	}

	sum := sha256.Sum256([]byte(tenantID))
	hash := hex.EncodeToString(sum[:])[:hashLength]

	head := prefix + "_" + base
	if maxHead := MaxIdentifierLength - hashLength - 1; len(head) > maxHead {
		head = strings.TrimRight(head[:maxHead], "_")
	}
	return head + "_" + hash
}

func sanitize(raw string) string {
	return strings.ReplaceAll(slug.Make(raw), "-", "_")
}

// DatabaseURL returns baseURL with its database path replaced by name.
func DatabaseURL(baseURL, name string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("%w: DATABASE_URL is required", domain.ErrConfig)
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: DATABASE_URL is not a valid URL", domain.ErrConfig)
	}
	u.Path = "/" + name
	u.RawPath = ""
	return u.String(), nil
}

// OwnerFromURL returns the user component of a connection URL.
func OwnerFromURL(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.User == nil {
		return ""
	}
	return u.User.Username()
}
