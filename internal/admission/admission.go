package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brandstudio/internal/domain"
	"brandstudio/internal/metrics"
)

// DebugPromptPrefix marks prompts that bypass admission control. It is
// a documented escape hatch for exercising the pipeline without
// touching balances.
const DebugPromptPrefix = "debug:"

// IsDebugPrompt reports whether the prompt opts out of admission.
func IsDebugPrompt(prompt string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(prompt)), DebugPromptPrefix)
}

// Cost returns the fixed credit cost for a model tier.
func Cost(tier domain.ModelTier) int {
	switch tier {
	case domain.ModelTierPro:
		return 15
	case domain.ModelTierUltra:
		return 40
	default:
		return 5
	}
}

// DeniedError is returned when a business cannot afford a tier. It
// tells the caller how many credits the request needs.
type DeniedError struct {
	Required int
	Balance  int
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Balance)
}

func (e *DeniedError) Unwrap() error { return domain.ErrInsufficientCredits }

// Ticket records a successful debit so the executor can refund it
// exactly once if the job fails.
type Ticket struct {
	BusinessID string
	Tier       domain.ModelTier
	Cost       int

	refunded bool
}

// Gate performs credit-based admission control. Debits are optimistic:
// the cost is taken before the job is known to succeed, and credited
// back on failure.
type Gate struct {
	credits domain.CreditRepository
}

// NewGate constructs a Gate over a credit repository.
func NewGate(credits domain.CreditRepository) *Gate {
	return &Gate{credits: credits}
}

// Admit debits the tier cost from the business balance. It fails closed:
// when the balance is short no job may be created, and the returned
// DeniedError carries the required cost.
func (g *Gate) Admit(ctx context.Context, businessID string, tier domain.ModelTier) (*Ticket, error) {
	cost := Cost(tier)
	if err := g.credits.Debit(ctx, businessID, cost); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) || errors.Is(err, domain.ErrNotFound) {
			balance, balErr := g.credits.Balance(ctx, businessID)
			if balErr != nil {
				balance = 0
			}
			metrics.IncAdmissionDenied()
			return nil, &DeniedError{Required: cost, Balance: balance}
		}
		return nil, fmt.Errorf("debit credits: %w", err)
	}
	metrics.AddCreditsDebited(string(tier), cost)
	return &Ticket{BusinessID: businessID, Tier: tier, Cost: cost}, nil
}

// Refund credits the ticket cost back. A ticket is refunded at most
// once; further calls are no-ops.
func (g *Gate) Refund(ctx context.Context, ticket *Ticket) error {
	if ticket == nil || ticket.refunded {
		return nil
	}
	if err := g.credits.Refund(ctx, ticket.BusinessID, ticket.Cost); err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}
	ticket.refunded = true
	metrics.AddCreditsRefunded(string(ticket.Tier), ticket.Cost)
	return nil
}
