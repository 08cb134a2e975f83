// Package toolpack binds the CRM capability set to the agent tool catalog.
// Each tool mirrors one account-scoped CRM operation: argument structs
// define the parameter schemas, handlers call the service with the scope
// supplied by the orchestrator, and service errors are folded into the
// closed domain error set.
package toolpack

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/moldcrm/agent/pkg/agent/domain"
	"github.com/moldcrm/agent/pkg/agent/tools"
	"github.com/moldcrm/agent/pkg/crm"
)

type getLeadArgs struct {
	LeadID int64 `json:"lead_id" jsonschema_description:"The unique identifier of the lead"`
}

type getDealArgs struct {
	DealID int64 `json:"deal_id" jsonschema_description:"The unique identifier of the deal"`
}

type getContactArgs struct {
	ContactID int64 `json:"contact_id" jsonschema_description:"The unique identifier of the contact"`
}

type createLeadArgs struct {
	FirstName string `json:"first_name" jsonschema_description:"Lead's first name"`
	LastName  string `json:"last_name" jsonschema_description:"Lead's last name"`
	Email     string `json:"email" jsonschema_description:"Lead's email address"`
	Company   string `json:"company,omitempty" jsonschema_description:"Lead's company name"`
	Phone     string `json:"phone,omitempty" jsonschema_description:"Lead's phone number"`
	Source    string `json:"source,omitempty" jsonschema_description:"How the lead was acquired"`
	Notes     string `json:"notes,omitempty" jsonschema_description:"Additional notes about the lead"`
}

type createDealArgs struct {
	Name              string  `json:"name" jsonschema_description:"Deal name or title"`
	ContactID         int64   `json:"contact_id" jsonschema_description:"ID of the contact associated with this deal"`
	Amount            float64 `json:"amount,omitempty" jsonschema_description:"Deal amount in dollars"`
	Probability       int     `json:"probability,omitempty" jsonschema:"minimum=0,maximum=100" jsonschema_description:"Probability of closing, 0-100"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema_description:"Expected close date, ISO format YYYY-MM-DD"`
	Notes             string  `json:"notes,omitempty" jsonschema_description:"Additional notes about the deal"`
}

type updateLeadStatusArgs struct {
	LeadID    int64  `json:"lead_id" jsonschema_description:"The unique identifier of the lead to update"`
	NewStatus string `json:"new_status" jsonschema:"enum=new,enum=contacted,enum=qualified,enum=unqualified" jsonschema_description:"New lead status"`
}

type updateDealStageArgs struct {
	DealID   int64  `json:"deal_id" jsonschema_description:"The unique identifier of the deal to update"`
	NewStage string `json:"new_stage" jsonschema:"enum=prospect,enum=qualification,enum=proposal,enum=negotiation,enum=closed_won,enum=closed_lost" jsonschema_description:"New deal stage"`
}

type leadsSummaryArgs struct {
	StatusFilter string `json:"status_filter,omitempty" jsonschema:"enum=new,enum=contacted,enum=qualified,enum=unqualified" jsonschema_description:"Optional status to filter by"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema_description:"Search query string"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50" jsonschema_description:"Maximum number of results"`
}

type emptyArgs struct{}

// BuildCatalog registers the CRM tool set against svc and freezes the
// catalog. The version string identifies the build for suggestion
// determinism and diagnostics.
func BuildCatalog(svc crm.Service, version string) (*tools.Catalog, error) {
	if svc == nil {
		return nil, errors.New("toolpack requires a CRM service")
	}
	b := tools.NewCatalogBuilder(version)

	register := func(def *tools.ToolDefinition, err error) error {
		if err != nil {
			return err
		}
		return b.Register(def)
	}

	registrations := []func() error{
		func() error {
			return register(tools.NewDefinition(
				"get_lead", "Retrieve detailed information about a specific lead.",
				getLeadArgs{}, getLead(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"get_deal", "Retrieve detailed information about a specific deal.",
				getDealArgs{}, getDeal(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"get_contact", "Retrieve detailed information about a specific contact.",
				getContactArgs{}, getContact(svc)))
		},
		func() error {
			def, err := tools.NewDefinition(
				"create_lead", "Create a new lead in the CRM system.",
				createLeadArgs{}, createLead(svc))
			if err != nil {
				return err
			}
			return b.Register(def.WithCritical())
		},
		func() error {
			def, err := tools.NewDefinition(
				"create_deal", "Create a new deal in the CRM system.",
				createDealArgs{}, createDeal(svc))
			if err != nil {
				return err
			}
			return b.Register(def.WithCritical())
		},
		func() error {
			return register(tools.NewDefinition(
				"update_lead_status", "Update the status of an existing lead.",
				updateLeadStatusArgs{}, updateLeadStatus(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"update_deal_stage", "Update the stage of an existing deal.",
				updateDealStageArgs{}, updateDealStage(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"get_pipeline_summary", "Get a summary of the sales pipeline: deal counts and values by stage.",
				emptyArgs{}, pipelineSummary(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"get_leads_summary", "Get a summary of leads with optional filtering by status.",
				leadsSummaryArgs{}, leadsSummary(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"search_leads", "Search for leads by name, email, or company.",
				searchArgs{}, searchLeads(svc)))
		},
		func() error {
			return register(tools.NewDefinition(
				"search_deals", "Search for deals by name or contact information.",
				searchArgs{}, searchDeals(svc)))
		},
	}
	for _, add := range registrations {
		if err := add(); err != nil {
			return nil, errors.Wrap(err, "build CRM tool catalog")
		}
	}
	return b.Build(), nil
}

func decode[T any](raw json.RawMessage) (T, error) {
	var in T
	if len(raw) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, domain.InvalidState("decode arguments: %s", err.Error())
	}
	return in, nil
}

// mapServiceError folds the CRM sentinel errors into domain error kinds.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, crm.ErrNotFound):
		return domain.NotFound("%s", err.Error())
	case errors.Is(err, crm.ErrDuplicateEmail):
		return domain.Conflict("%s", err.Error())
	case errors.Is(err, crm.ErrInvalidTransition):
		return domain.InvalidState("%s", err.Error())
	case errors.Is(err, crm.ErrUnavailable):
		return domain.Unavailable("%s", err.Error())
	default:
		return err
	}
}

func getLead(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[getLeadArgs](raw)
		if err != nil {
			return nil, err
		}
		lead, err := svc.GetLead(ctx, scope.AccountID, in.LeadID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"lead": lead}, nil
	}
}

func getDeal(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[getDealArgs](raw)
		if err != nil {
			return nil, err
		}
		deal, err := svc.GetDeal(ctx, scope.AccountID, in.DealID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"deal": deal}, nil
	}
}

func getContact(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[getContactArgs](raw)
		if err != nil {
			return nil, err
		}
		contact, err := svc.GetContact(ctx, scope.AccountID, in.ContactID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"contact": contact}, nil
	}
}

func createLead(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[createLeadArgs](raw)
		if err != nil {
			return nil, err
		}
		lead, err := svc.CreateLead(ctx, scope.AccountID, scope.UserID, crm.NewLead{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			Company:   in.Company,
			Source:    in.Source,
			Notes:     in.Notes,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{
			"lead_id": lead.ID,
			"message": "Lead '" + lead.FullName() + "' created successfully",
		}, nil
	}
}

func createDeal(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[createDealArgs](raw)
		if err != nil {
			return nil, err
		}
		input := crm.NewDeal{
			Name:        in.Name,
			ContactID:   in.ContactID,
			Amount:      in.Amount,
			Probability: in.Probability,
			Notes:       in.Notes,
		}
		if in.ExpectedCloseDate != "" {
			closeDate, err := time.Parse("2006-01-02", in.ExpectedCloseDate)
			if err != nil {
				return nil, domain.InvalidState("expected_close_date must be YYYY-MM-DD: %s", in.ExpectedCloseDate)
			}
			input.ExpectedCloseDate = &closeDate
		}
		deal, err := svc.CreateDeal(ctx, scope.AccountID, scope.UserID, input)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{
			"deal_id": deal.ID,
			"message": "Deal '" + deal.Name + "' created successfully",
		}, nil
	}
}

func updateLeadStatus(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[updateLeadStatusArgs](raw)
		if err != nil {
			return nil, err
		}
		lead, err := svc.UpdateLeadStatus(ctx, scope.AccountID, in.LeadID, crm.LeadStatus(in.NewStatus))
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{
			"lead_id":   lead.ID,
			"lead_name": lead.FullName(),
			"message":   "Lead status updated to '" + string(lead.Status) + "'",
		}, nil
	}
}

func updateDealStage(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[updateDealStageArgs](raw)
		if err != nil {
			return nil, err
		}
		deal, err := svc.UpdateDealStage(ctx, scope.AccountID, in.DealID, crm.DealStage(in.NewStage))
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{
			"deal_id":   deal.ID,
			"deal_name": deal.Name,
			"message":   "Deal stage updated to '" + string(deal.Stage) + "'",
		}, nil
	}
}

func pipelineSummary(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, _ json.RawMessage) (any, error) {
		summary, err := svc.PipelineSummary(ctx, scope.AccountID)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"pipeline": summary}, nil
	}
}

func leadsSummary(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[leadsSummaryArgs](raw)
		if err != nil {
			return nil, err
		}
		summary, err := svc.LeadsSummary(ctx, scope.AccountID, crm.LeadStatus(in.StatusFilter))
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"leads": summary}, nil
	}
}

func searchLeads(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[searchArgs](raw)
		if err != nil {
			return nil, err
		}
		matches, err := svc.SearchLeads(ctx, scope.AccountID, in.Query, in.Limit)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"results": matches, "count": len(matches)}, nil
	}
}

func searchDeals(svc crm.Service) tools.Capability {
	return func(ctx context.Context, scope tools.Scope, raw json.RawMessage) (any, error) {
		in, err := decode[searchArgs](raw)
		if err != nil {
			return nil, err
		}
		matches, err := svc.SearchDeals(ctx, scope.AccountID, in.Query, in.Limit)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]any{"results": matches, "count": len(matches)}, nil
	}
}
