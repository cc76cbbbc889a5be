package shopify

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxySignatureRoundTrip(t *testing.T) {
	query := url.Values{
		"shop":        {"demo.myshopify.com"},
		"path_prefix": {"/apps/wheel"},
		"timestamp":   {"1717236000"},
		"ids":         {"2", "1"},
	}
	query.Set("signature", ProxySignature("hush", query))

	assert.True(t, VerifyProxySignature("hush", query))
	assert.False(t, VerifyProxySignature("other", query))
	assert.False(t, VerifyProxySignature("", query))
}

func TestProxySignatureRejectsTampering(t *testing.T) {
	query := url.Values{"shop": {"demo.myshopify.com"}, "timestamp": {"1717236000"}}
	query.Set("signature", ProxySignature("hush", query))

	query.Set("shop", "evil.myshopify.com")
	assert.False(t, VerifyProxySignature("hush", query))

	query.Del("signature")
	assert.False(t, VerifyProxySignature("hush", query))
}

func TestProxySignatureIgnoresParameterOrder(t *testing.T) {
	a := url.Values{"b": {"2"}, "a": {"1"}}
	b := url.Values{"a": {"1"}, "b": {"2"}}
	assert.Equal(t, ProxySignature("hush", a), ProxySignature("hush", b))
	assert.NotEqual(t, ProxySignature("hush", a), ProxySignature("hush", url.Values{"a": {"1"}}))
}
