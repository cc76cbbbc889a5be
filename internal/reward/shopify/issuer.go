package shopify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/observability/metrics"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	"github.com/smallbiznis/prizewheel/internal/reward/domain"
	shopsessiondomain "github.com/smallbiznis/prizewheel/internal/shopsession/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Client  *Client
	Tokens  shopsessiondomain.TokenSource
	Policy  *config.RewardPolicyHolder
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Issuer creates single-use, customer-bound discount codes through the
// Admin GraphQL API.
type Issuer struct {
	client  *Client
	tokens  shopsessiondomain.TokenSource
	policy  *config.RewardPolicyHolder
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewIssuer(p Params) *Issuer {
	return &Issuer{
		client:  p.Client,
		tokens:  p.Tokens,
		policy:  p.Policy,
		clock:   p.Clock,
		log:     p.Log.Named("reward.shopify"),
		metrics: p.Metrics,
	}
}

func NewClientFromConfig(cfg config.Config) *Client {
	return NewClient(cfg.Shopify.APIVersion, cfg.Shopify.RequestTimeout)
}

func (i *Issuer) Issue(ctx context.Context, tenantID, identity string, segment prizedomain.Segment, code string) (domain.DiscountRef, error) {
	ref, err := i.issue(ctx, tenantID, identity, segment, code)
	result := "success"
	if err != nil {
		result = "failure"
	}
	i.metrics.RecordRewardIssue(ctx, string(segment.DiscountType), result)
	return ref, err
}

func (i *Issuer) issue(ctx context.Context, shop, email string, segment prizedomain.Segment, code string) (domain.DiscountRef, error) {
	token, err := i.tokens.AccessToken(ctx, shop)
	if err != nil {
		return domain.DiscountRef{}, &domain.IssueError{Step: domain.StepSession, Message: "admin api unavailable for shop", Err: err}
	}

	policy := i.policy.Get()
	customerID, err := i.customerID(ctx, shop, token, email, policy.CustomerTag)
	if err != nil {
		return domain.DiscountRef{}, err
	}

	discountType, ok := prizedomain.ParseDiscountType(string(segment.DiscountType))
	if !ok {
		return domain.DiscountRef{}, &domain.IssueError{Step: domain.StepDiscount, Message: "unsupported discount type"}
	}

	collectionID := ""
	if discountType != prizedomain.DiscountFreeShipping {
		collectionID, err = i.collectionID(ctx, shop, token, policy.CollectionHandle)
		if err != nil {
			return domain.DiscountRef{}, err
		}
	}

	startsAt := i.clock.Now().UTC()
	endsAt := startsAt.AddDate(0, 0, policy.ValidityDays)
	base := map[string]any{
		"title":                  discountTitle(segment.Label),
		"code":                   code,
		"startsAt":               startsAt.Format(time.RFC3339),
		"endsAt":                 endsAt.Format(time.RFC3339),
		"customerSelection":      map[string]any{"customers": map[string]any{"add": []string{customerID}}},
		"appliesOncePerCustomer": true,
		"usageLimit":             1,
	}

	var mutation, node string
	switch discountType {
	case prizedomain.DiscountFreeShipping:
		mutation, node = mutationFreeShipping, "discountCodeFreeShippingCreate"
		base["destination"] = map[string]any{"all": true}
	case prizedomain.DiscountFixed:
		mutation, node = mutationBasic, "discountCodeBasicCreate"
		base["customerGets"] = map[string]any{
			"value": map[string]any{
				"discountAmount": map[string]any{
					"amount":            strconv.FormatFloat(segment.DiscountValue, 'f', -1, 64),
					"appliesOnEachItem": false,
				},
			},
			"items": collectionItems(collectionID),
		}
	case prizedomain.DiscountPercent:
		mutation, node = mutationBxgy, "discountCodeBxgyCreate"
		base["customerBuys"] = map[string]any{
			"value": map[string]any{"quantity": "1"},
			"items": collectionItems(collectionID),
		}
		base["customerGets"] = map[string]any{
			"items": collectionItems(collectionID),
			"value": map[string]any{
				"discountOnQuantity": map[string]any{
					"quantity": "1",
					"effect":   map[string]any{"percentage": segment.DiscountValue / 100},
				},
			},
		}
		base["usesPerOrderLimit"] = 1
	}

	data, err := i.client.Do(ctx, shop, token, mutation, map[string]any{"discount": base})
	if err != nil {
		return domain.DiscountRef{}, &domain.IssueError{Step: domain.StepDiscount, Message: "discount create failed", Err: err}
	}
	payload := data.Get(node)
	if err := UserErrors(payload); err != nil {
		return domain.DiscountRef{}, &domain.IssueError{Step: domain.StepDiscount, Message: "discount rejected", Err: err}
	}

	discountID := payload.Get("codeDiscountNode.id").String()
	if discountID == "" {
		return domain.DiscountRef{}, &domain.IssueError{Step: domain.StepDiscount, Message: "discount create returned no id"}
	}

	ref := domain.DiscountRef{
		CustomerID: customerID,
		DiscountID: discountID,
		Code:       code,
	}
	i.setMetafields(ctx, shop, token, customerID, policy.MetafieldNamespace, segment.Label, code)
	return ref, nil
}

func (i *Issuer) customerID(ctx context.Context, shop, token, email, tag string) (string, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(email)
	data, err := i.client.Do(ctx, shop, token, queryFindCustomer, map[string]any{
		"query": `email:"` + escaped + `"`,
	})
	if err != nil {
		return "", &domain.IssueError{Step: domain.StepCustomer, Message: "customer lookup failed", Err: err}
	}
	if id := data.Get("customers.edges.0.node.id").String(); id != "" {
		return id, nil
	}

	input := map[string]any{"email": email}
	if tag != "" {
		input["tags"] = []string{tag}
	}
	data, err = i.client.Do(ctx, shop, token, mutationCustomerCreate, map[string]any{"input": input})
	if err != nil {
		return "", &domain.IssueError{Step: domain.StepCustomer, Message: "customer create failed", Err: err}
	}
	payload := data.Get("customerCreate")
	if err := UserErrors(payload); err != nil {
		return "", &domain.IssueError{Step: domain.StepCustomer, Message: "customer create rejected", Err: err}
	}
	id := payload.Get("customer.id").String()
	if id == "" {
		return "", &domain.IssueError{Step: domain.StepCustomer, Message: "customer create returned no id"}
	}
	return id, nil
}

func (i *Issuer) collectionID(ctx context.Context, shop, token, handle string) (string, error) {
	data, err := i.client.Do(ctx, shop, token, queryCollectionByHandle, map[string]any{"handle": handle})
	if err != nil {
		return "", &domain.IssueError{Step: domain.StepCollection, Message: "collection lookup failed", Err: err}
	}
	id := data.Get("collectionByHandle.id").String()
	if id == "" {
		return "", &domain.IssueError{
			Step:    domain.StepCollection,
			Message: "reward collection not found",
			Err:     errors.New("collection " + handle + " not found"),
		}
	}
	return id, nil
}

// setMetafields is best-effort: the discount already exists.
func (i *Issuer) setMetafields(ctx context.Context, shop, token, customerID, namespace, label, code string) {
	field := func(key, value string) map[string]any {
		return map[string]any{
			"ownerId":   customerID,
			"namespace": namespace,
			"key":       key,
			"type":      "single_line_text_field",
			"value":     value,
		}
	}
	data, err := i.client.Do(ctx, shop, token, mutationMetafieldsSet, map[string]any{
		"metafields": []map[string]any{
			field("wheel_prize_label", label),
			field("wheel_discount_code", code),
		},
	})
	if err == nil {
		err = UserErrors(data.Get("metafieldsSet"))
	}
	if err != nil {
		i.log.Warn("customer metafields not set",
			zap.String("tenant_id", shop),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
	}
}

func collectionItems(id string) map[string]any {
	return map[string]any{"collections": map[string]any{"add": []string{id}}}
}

func discountTitle(label string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return "Wheel discount"
}
