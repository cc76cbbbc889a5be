package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// ProxySignature computes the app-proxy signature for query: every
// parameter except `signature` rendered as key=v1,v2, sorted, concatenated
// and signed with HMAC-SHA256 under the app secret.
func ProxySignature(secret string, query url.Values) string {
	parts := make([]string, 0, len(query))
	for key, values := range query {
		if key == "signature" {
			continue
		}
		parts = append(parts, key+"="+strings.Join(values, ","))
	}
	sort.Strings(parts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyProxySignature reports whether query carries a valid app-proxy
// signature for secret.
func VerifyProxySignature(secret string, query url.Values) bool {
	got := query.Get("signature")
	if secret == "" || got == "" {
		return false
	}
	want := ProxySignature(secret, query)
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}
