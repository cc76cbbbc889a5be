package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 1 << 20

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

var ErrInvalidShop = errors.New("invalid_shop_domain")

// Client talks to the Admin GraphQL API of one API version.
type Client struct {
	http       *http.Client
	apiVersion string
	timeout    time.Duration
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL sends every request to base instead of https://{shop}.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// ValidShopDomain reports whether shop is a *.myshopify.com domain.
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

func NewClient(apiVersion string, timeout time.Duration, opts ...ClientOption) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	c := &Client{
		http:       httpClient,
		apiVersion: apiVersion,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(shop string) (string, error) {
	if c.baseURL != "" {
		return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.apiVersion), nil
	}
	shop = strings.ToLower(strings.TrimSpace(shop))
	if !shopDomainPattern.MatchString(shop) {
		return "", ErrInvalidShop
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion), nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Do runs one GraphQL operation and returns its data node. Transport
// failures, non-2xx statuses and top-level GraphQL errors are errors;
// userErrors are left for the caller to inspect.
func (c *Client) Do(ctx context.Context, shop, token, query string, variables map[string]any) (gjson.Result, error) {
	url, err := c.endpoint(shop)
	if err != nil {
		return gjson.Result{}, err
	}

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return gjson.Result{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("admin api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("admin api returned invalid json")
	}

	parsed := gjson.ParseBytes(body)
	if errs := parsed.Get("errors"); errs.Exists() {
		if msg := collectMessages(errs); msg != nil {
			return gjson.Result{}, msg
		}
		return gjson.Result{}, errors.New(errs.String())
	}
	return parsed.Get("data"), nil
}

// UserErrors aggregates the userErrors array of a mutation payload.
func UserErrors(payload gjson.Result) error {
	return collectMessages(payload.Get("userErrors"))
}

func collectMessages(list gjson.Result) error {
	if !list.IsArray() {
		return nil
	}
	var result *multierror.Error
	list.ForEach(func(_, item gjson.Result) bool {
		msg := strings.TrimSpace(item.Get("message").String())
		if msg == "" {
			msg = "unknown error"
		}
		if field := item.Get("field"); field.IsArray() && len(field.Array()) > 0 {
			parts := make([]string, 0, len(field.Array()))
			for _, f := range field.Array() {
				parts = append(parts, f.String())
			}
			msg = strings.Join(parts, ".") + ": " + msg
		}
		result = multierror.Append(result, errors.New(msg))
		return true
	})
	return result.ErrorOrNil()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
