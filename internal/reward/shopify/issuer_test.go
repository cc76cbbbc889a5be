package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/config"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	"github.com/smallbiznis/prizewheel/internal/reward/domain"
	shopsessiondomain "github.com/smallbiznis/prizewheel/internal/shopsession/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens map[string]string

func (s staticTokens) AccessToken(ctx context.Context, shop string) (string, error) {
	token, ok := s[shop]
	if !ok {
		return "", shopsessiondomain.ErrNoSession
	}
	return token, nil
}

type recordedCall struct {
	Query     string
	Variables map[string]any
}

// fakeAdmin answers Admin GraphQL operations by operation name.
type fakeAdmin struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]string
	status    int
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Query: req.Query, Variables: req.Variables})
	f.mu.Unlock()

	if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	for name, body := range f.responses {
		if strings.Contains(req.Query, name) {
			_, _ = w.Write([]byte(body))
			return
		}
	}
	_, _ = w.Write([]byte(`{"data":{}}`))
}

func (f *fakeAdmin) call(name string) *recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.calls {
		if strings.Contains(f.calls[i].Query, name) {
			return &f.calls[i]
		}
	}
	return nil
}

func okResponses() map[string]string {
	return map[string]string{
		"FindCustomerByEmail":            `{"data":{"customers":{"edges":[]}}}`,
		"customerCreate":                 `{"data":{"customerCreate":{"customer":{"id":"gid://shopify/Customer/1"},"userErrors":[]}}}`,
		"CollectionByHandle":             `{"data":{"collectionByHandle":{"id":"gid://shopify/Collection/9"}}}`,
		"discountCodeFreeShippingCreate": `{"data":{"discountCodeFreeShippingCreate":{"codeDiscountNode":{"id":"gid://shopify/DiscountCodeNode/3"},"userErrors":[]}}}`,
		"discountCodeBasicCreate":        `{"data":{"discountCodeBasicCreate":{"codeDiscountNode":{"id":"gid://shopify/DiscountCodeNode/4"},"userErrors":[]}}}`,
		"discountCodeBxgyCreate":         `{"data":{"discountCodeBxgyCreate":{"codeDiscountNode":{"id":"gid://shopify/DiscountCodeNode/5"},"userErrors":[]}}}`,
		"metafieldsSet":                  `{"data":{"metafieldsSet":{"metafields":[],"userErrors":[]}}}`,
	}
}

func newTestIssuer(t *testing.T, admin *fakeAdmin) *Issuer {
	t.Helper()
	srv := httptest.NewServer(admin)
	t.Cleanup(srv.Close)

	return NewIssuer(Params{
		Client: NewClient("2024-10", 5*time.Second, WithBaseURL(srv.URL)),
		Tokens: staticTokens{"demo.myshopify.com": "shpat_test"},
		Policy: config.StaticRewardPolicy(config.DefaultRewardPolicy()),
		Clock:  clock.NewFakeClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)),
		Log:    zap.NewNop(),
	})
}

func TestIssueFreeShippingSkipsCollection(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	issuer := newTestIssuer(t, admin)

	ref, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "Free shipping", DiscountType: prizedomain.DiscountFreeShipping,
	}, "WHEEL-ABCDEFGHJK")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Customer/1", ref.CustomerID)
	assert.Equal(t, "gid://shopify/DiscountCodeNode/3", ref.DiscountID)
	assert.Equal(t, "WHEEL-ABCDEFGHJK", ref.Code)
	assert.Nil(t, admin.call("CollectionByHandle"))

	create := admin.call("discountCodeFreeShippingCreate")
	require.NotNil(t, create)
	discount := create.Variables["discount"].(map[string]any)
	assert.Equal(t, "WHEEL-ABCDEFGHJK", discount["code"])
	assert.Equal(t, true, discount["appliesOncePerCustomer"])
	assert.Equal(t, float64(1), discount["usageLimit"])
	assert.Equal(t, "2026-06-01T10:00:00Z", discount["startsAt"])
	assert.Equal(t, "2026-07-01T10:00:00Z", discount["endsAt"])
	assert.Equal(t, map[string]any{"all": true}, discount["destination"])

	customer := admin.call("customerCreate")
	require.NotNil(t, customer)
	input := customer.Variables["input"].(map[string]any)
	assert.Equal(t, []any{"wheel-customer"}, input["tags"])
	assert.NotNil(t, admin.call("metafieldsSet"))
}

func TestIssueFixedUsesCollection(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	admin.responses["FindCustomerByEmail"] = `{"data":{"customers":{"edges":[{"node":{"id":"gid://shopify/Customer/77","email":"a@b.co"}}]}}}`
	issuer := newTestIssuer(t, admin)

	ref, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "$5 off", DiscountType: prizedomain.DiscountFixed, DiscountValue: 5,
	}, "WHEEL-0000000001")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Customer/77", ref.CustomerID)
	assert.Nil(t, admin.call("customerCreate"))

	lookup := admin.call("FindCustomerByEmail")
	require.NotNil(t, lookup)
	assert.Equal(t, `email:"a@b.co"`, lookup.Variables["query"])

	create := admin.call("discountCodeBasicCreate")
	require.NotNil(t, create)
	gets := create.Variables["discount"].(map[string]any)["customerGets"].(map[string]any)
	amount := gets["value"].(map[string]any)["discountAmount"].(map[string]any)
	assert.Equal(t, "5", amount["amount"])
	items := gets["items"].(map[string]any)["collections"].(map[string]any)["add"].([]any)
	assert.Equal(t, []any{"gid://shopify/Collection/9"}, items)
}

func TestIssuePercentBuysOneGetsOne(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	issuer := newTestIssuer(t, admin)

	_, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "15% off", DiscountType: prizedomain.DiscountPercent, DiscountValue: 15,
	}, "WHEEL-0000000002")
	require.NoError(t, err)

	create := admin.call("discountCodeBxgyCreate")
	require.NotNil(t, create)
	discount := create.Variables["discount"].(map[string]any)
	assert.Equal(t, float64(1), discount["usesPerOrderLimit"])
	effect := discount["customerGets"].(map[string]any)["value"].(map[string]any)["discountOnQuantity"].(map[string]any)["effect"].(map[string]any)
	assert.InDelta(t, 0.15, effect["percentage"], 1e-9)
}

func TestIssueUserErrorsFail(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	admin.responses["discountCodeBxgyCreate"] = `{"data":{"discountCodeBxgyCreate":{"codeDiscountNode":null,"userErrors":[{"field":["bxgyCodeDiscount","code"],"code":"TAKEN","message":"Code must be unique"}]}}}`
	issuer := newTestIssuer(t, admin)

	_, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "15% off", DiscountType: prizedomain.DiscountPercent, DiscountValue: 15,
	}, "WHEEL-0000000003")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIssue))

	var issueErr *domain.IssueError
	require.True(t, errors.As(err, &issueErr))
	assert.Equal(t, domain.StepDiscount, issueErr.Step)
	assert.Contains(t, err.Error(), "Code must be unique")
	assert.Nil(t, admin.call("metafieldsSet"))
}

func TestIssueEmptyDiscountPayloadFails(t *testing.T) {
	for name, body := range map[string]string{
		"null payload": `{"data":{"discountCodeBasicCreate":null}}`,
		"missing id":   `{"data":{"discountCodeBasicCreate":{"codeDiscountNode":null,"userErrors":[]}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			admin := &fakeAdmin{responses: okResponses()}
			admin.responses["discountCodeBasicCreate"] = body
			issuer := newTestIssuer(t, admin)

			ref, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
				Label: "$5 off", DiscountType: prizedomain.DiscountFixed, DiscountValue: 5,
			}, "WHEEL-0000000009")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrIssue))
			assert.Empty(t, ref.DiscountID)

			var issueErr *domain.IssueError
			require.True(t, errors.As(err, &issueErr))
			assert.Equal(t, domain.StepDiscount, issueErr.Step)
			assert.Nil(t, admin.call("metafieldsSet"))
		})
	}
}

func TestIssueMissingCollection(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	admin.responses["CollectionByHandle"] = `{"data":{"collectionByHandle":null}}`
	issuer := newTestIssuer(t, admin)

	_, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "$5 off", DiscountType: prizedomain.DiscountFixed, DiscountValue: 5,
	}, "WHEEL-0000000004")
	var issueErr *domain.IssueError
	require.True(t, errors.As(err, &issueErr))
	assert.Equal(t, domain.StepCollection, issueErr.Step)
	assert.Nil(t, admin.call("discountCodeBasicCreate"))
}

func TestIssueNoSession(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	issuer := newTestIssuer(t, admin)

	_, err := issuer.Issue(context.Background(), "other.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "Free shipping", DiscountType: prizedomain.DiscountFreeShipping,
	}, "WHEEL-0000000005")
	var issueErr *domain.IssueError
	require.True(t, errors.As(err, &issueErr))
	assert.Equal(t, domain.StepSession, issueErr.Step)
	assert.True(t, errors.Is(err, shopsessiondomain.ErrNoSession))
	assert.Empty(t, admin.calls)
}

func TestIssueMetafieldFailureIsNotFatal(t *testing.T) {
	admin := &fakeAdmin{responses: okResponses()}
	admin.responses["metafieldsSet"] = `{"data":{"metafieldsSet":{"metafields":null,"userErrors":[{"field":["metafields"],"message":"definition missing"}]}}}`
	issuer := newTestIssuer(t, admin)

	_, err := issuer.Issue(context.Background(), "demo.myshopify.com", "a@b.co", prizedomain.Segment{
		Label: "Free shipping", DiscountType: prizedomain.DiscountFreeShipping,
	}, "WHEEL-0000000006")
	assert.NoError(t, err)
}

func TestClientErrors(t *testing.T) {
	failing := httptest.NewServer(&fakeAdmin{status: http.StatusBadGateway})
	defer failing.Close()
	client := NewClient("2024-10", time.Second, WithBaseURL(failing.URL))

	_, err := client.Do(context.Background(), "demo.myshopify.com", "shpat_test", queryFindCustomer, nil)
	assert.ErrorContains(t, err, "status 502")

	throttled := httptest.NewServer(&fakeAdmin{responses: map[string]string{
		"FindCustomerByEmail": `{"errors":[{"message":"Throttled"}]}`,
	}})
	defer throttled.Close()
	client = NewClient("2024-10", time.Second, WithBaseURL(throttled.URL))

	_, err = client.Do(context.Background(), "demo.myshopify.com", "shpat_test", queryFindCustomer, nil)
	assert.ErrorContains(t, err, "Throttled")
}

func TestClientTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	client := NewClient("2024-10", 50*time.Millisecond, WithBaseURL(slow.URL))
	_, err := client.Do(context.Background(), "demo.myshopify.com", "shpat_test", queryFindCustomer, nil)
	assert.Error(t, err)
}

func TestEndpointRejectsForeignHosts(t *testing.T) {
	client := NewClient("2024-10", time.Second)
	_, err := client.endpoint("evil.example.com")
	assert.ErrorIs(t, err, ErrInvalidShop)

	url, err := client.endpoint("Demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "https://demo.myshopify.com/admin/api/2024-10/graphql.json", url)
}
