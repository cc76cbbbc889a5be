package domain

import (
	"context"
	"errors"
	"fmt"

	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
)

var ErrIssue = errors.New("reward_issue_failed")

// Steps of an issuance, reported on IssueError.
const (
	StepSession    = "session"
	StepCustomer   = "customer"
	StepCollection = "collection"
	StepDiscount   = "discount"
)

// DiscountRef identifies what was created on the commerce platform.
type DiscountRef struct {
	CustomerID string
	DiscountID string
	Code       string
}

// Issuer creates the external discount for a won segment. Implementations
// must not persist anything locally.
type Issuer interface {
	Issue(ctx context.Context, tenantID, identity string, segment prizedomain.Segment, code string) (DiscountRef, error)
}

// IssueError is returned for any failed issuance. Message is safe to log
// but not to show to shoppers.
type IssueError struct {
	Step    string
	Message string
	Err     error
}

func (e *IssueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reward %s: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("reward %s: %s", e.Step, e.Message)
}

func (e *IssueError) Unwrap() error { return e.Err }

func (e *IssueError) Is(target error) bool { return target == ErrIssue }
