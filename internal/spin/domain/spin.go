package domain

import (
	"context"
	"errors"
)

var (
	ErrSuspicious         = errors.New("suspicious activity")
	ErrInvalidIdentity    = errors.New("enter a valid email")
	ErrSpinInProgress     = errors.New("spin_in_progress")
	ErrCatalogUnavailable = errors.New("wheel is not configured")
	// ErrRewardUnavailable is shown to shoppers when issuance fails. The
	// underlying IssueError is logged.
	ErrRewardUnavailable = errors.New("could not create your discount, please try again")
)

type Request struct {
	TenantID   string
	Identity   string
	DeviceType string
	// Honeypot is a hidden form field; bots fill it.
	Honeypot string
}

type Status string

const (
	StatusWon           Status = "won"
	StatusAlreadyPlayed Status = "already_played"
	StatusInvalid       Status = "invalid"
)

type Result struct {
	Status Status

	Label string
	Code  string
	Index int

	ExistingCode  string
	ExistingLabel string

	// Reason is set for StatusInvalid.
	Reason error
}

// Locker serializes spins per shopper across processes.
type Locker interface {
	TryLockIdentity(ctx context.Context, tenantID, identity string) (string, bool, error)
	ReleaseIdentity(ctx context.Context, tenantID, identity, token string) error
}

type Service interface {
	Spin(ctx context.Context, req Request) (Result, error)
}
