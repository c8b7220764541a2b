// Package billing talks to Stripe for sponsorship subscriptions.
package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/projecta/backend/internal/domain/sponsorship"
	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

var (
	// ErrBillingDisabled is returned when no Stripe key is configured
	ErrBillingDisabled = errors.New("billing: stripe is not configured")
	// ErrSubscriptionNotFound is returned when Stripe does not know the subscription
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
)

// Subscription is the part of a Stripe subscription sponsorship periods track
type Subscription struct {
	ID                string
	CustomerID        string
	Status            sponsorship.SubscriptionStatus
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time
}

// SubscriptionGateway reads and cancels subscriptions at the billing provider
type SubscriptionGateway interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID, reason string) (*Subscription, error)
}

// StripeGateway implements SubscriptionGateway with the Stripe API
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// StripeOption configures a StripeGateway
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithBackend replaces the HTTP backend, used by tests
func WithBackend(b stripe.Backend) StripeOption {
	return func(o *stripeOptions) {
		o.backends = &stripe.Backends{API: b, Connect: b, Uploads: b}
	}
}

// NewStripeGateway creates a gateway for the configured secret key
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrBillingDisabled
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &StripeGateway{
		api:    client.New(cfg.SecretKey, o.backends),
		logger: logger,
	}, nil
}

// GetSubscription fetches the current state of a subscription
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, ErrSubscriptionNotFound
		}
		g.logger.Error("Failed to get Stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}
	return toSubscription(sub), nil
}

// CancelSubscription cancels a subscription immediately
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID, reason string) (*Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if reason != "" {
		params.CancellationDetails = &stripe.SubscriptionCancelCancellationDetailsParams{
			Comment: stripe.String(reason),
		}
	}

	sub, err := g.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, ErrSubscriptionNotFound
		}
		g.logger.Error("Failed to cancel Stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	g.logger.Info("Canceled Stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return toSubscription(sub), nil
}

func toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            mapStripeSubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		out.CanceledAt = &t
	}
	return out
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing
}

func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) sponsorship.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return sponsorship.SubscriptionActive
	case stripe.SubscriptionStatusPastDue:
		return sponsorship.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		return sponsorship.SubscriptionCanceled
	case stripe.SubscriptionStatusIncomplete:
		return sponsorship.SubscriptionIncomplete
	case stripe.SubscriptionStatusIncompleteExpired:
		return sponsorship.SubscriptionExpired
	case stripe.SubscriptionStatusTrialing:
		return sponsorship.SubscriptionTrialing
	case stripe.SubscriptionStatusUnpaid:
		return sponsorship.SubscriptionUnpaid
	case stripe.SubscriptionStatusPaused:
		return sponsorship.SubscriptionPaused
	default:
		return sponsorship.SubscriptionStatus(status)
	}
}

var _ SubscriptionGateway = (*StripeGateway)(nil)
