package crm

import (
	"context"

	"github.com/pkg/errors"
)

// Sentinel errors the capability set surfaces. The invocation adapter and
// tool bindings normalize these into the orchestration error taxonomy.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("a lead with this email already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnavailable       = errors.New("crm store unavailable")
)

// Service is the account-scoped capability set the orchestration engine
// invokes. Every method takes the account identity as its first argument;
// implementations must never return records belonging to another account.
type Service interface {
	GetLead(ctx context.Context, accountID, leadID int64) (*Lead, error)
	GetDeal(ctx context.Context, accountID, dealID int64) (*Deal, error)
	GetContact(ctx context.Context, accountID, contactID int64) (*Contact, error)

	CreateLead(ctx context.Context, accountID, userID int64, in NewLead) (*Lead, error)
	CreateDeal(ctx context.Context, accountID, userID int64, in NewDeal) (*Deal, error)

	UpdateLeadStatus(ctx context.Context, accountID, leadID int64, status LeadStatus) (*Lead, error)
	UpdateDealStage(ctx context.Context, accountID, dealID int64, stage DealStage) (*Deal, error)

	PipelineSummary(ctx context.Context, accountID int64) (*PipelineSummary, error)
	LeadsSummary(ctx context.Context, accountID int64, statusFilter LeadStatus) (*LeadsSummary, error)

	SearchLeads(ctx context.Context, accountID int64, query string, limit int) ([]LeadMatch, error)
	SearchDeals(ctx context.Context, accountID int64, query string, limit int) ([]DealMatch, error)
}
