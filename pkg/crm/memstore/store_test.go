package memstore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldcrm/agent/pkg/crm"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	contact := s.AddContact(crm.Contact{AccountID: 1, FirstName: "Ana", LastName: "Pop", Email: "ana@acme.com", Company: "Acme"})
	s.AddDeal(crm.Deal{AccountID: 1, Name: "Acme expansion", ContactID: contact.ID, Amount: 50000, Stage: crm.DealStageProposal, Probability: 60})
	s.AddDeal(crm.Deal{AccountID: 1, Name: "Acme renewal", ContactID: contact.ID, Amount: 20000, Stage: crm.DealStageClosedWon})
	s.AddDeal(crm.Deal{AccountID: 1, Name: "Beta pilot", ContactID: contact.ID, Amount: 5000, Stage: crm.DealStageClosedLost})
	s.AddLead(crm.Lead{AccountID: 1, FirstName: "John", LastName: "Doe", Email: "john@acme.com", Company: "Acme", Status: crm.LeadStatusNew})
	s.AddLead(crm.Lead{AccountID: 1, FirstName: "Mara", LastName: "Ionescu", Email: "mara@beta.io", Status: crm.LeadStatusQualified})
	// Another account's data must stay invisible.
	s.AddLead(crm.Lead{AccountID: 2, FirstName: "Eve", LastName: "Intruder", Email: "eve@other.com"})
	return s
}

func TestAccountScopingOnReads(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	leads, err := s.SearchLeads(ctx, 1, "", 50)
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	// A lead belonging to account 2 is not visible to account 1.
	otherLead := s.AddLead(crm.Lead{AccountID: 2, FirstName: "Hidden", LastName: "One", Email: "h@other.com"})
	_, err = s.GetLead(ctx, 1, otherLead.ID)
	assert.True(t, errors.Is(err, crm.ErrNotFound))
}

func TestCreateLeadDuplicateEmailConflicts(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := s.CreateLead(ctx, 1, 9, crm.NewLead{FirstName: "John", LastName: "Again", Email: "John@Acme.com"})
	assert.True(t, errors.Is(err, crm.ErrDuplicateEmail))

	// The same email under a different account is fine.
	lead, err := s.CreateLead(ctx, 2, 9, crm.NewLead{FirstName: "John", LastName: "Other", Email: "john@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusNew, lead.Status)
}

func TestUpdateLeadStatusValidation(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	leads, err := s.SearchLeads(ctx, 1, "john", 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	updated, err := s.UpdateLeadStatus(ctx, 1, leads[0].ID, crm.LeadStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusContacted, updated.Status)

	_, err = s.UpdateLeadStatus(ctx, 1, leads[0].ID, crm.LeadStatus("on_fire"))
	assert.True(t, errors.Is(err, crm.ErrInvalidTransition))
}

func TestCreateDealRequiresContactInAccount(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := s.CreateDeal(ctx, 2, 9, crm.NewDeal{Name: "Cross-account", ContactID: 1})
	assert.True(t, errors.Is(err, crm.ErrNotFound))
}

func TestPipelineSummaryAggregation(t *testing.T) {
	s := seedStore(t)

	summary, err := s.PipelineSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalDeals)
	assert.Equal(t, 75000.0, summary.TotalValue)
	assert.Equal(t, 25000.0, summary.AverageDealSize)
	assert.Equal(t, 1, summary.ActiveDeals)
	assert.Equal(t, 1, summary.WonDeals)
	assert.Equal(t, 1, summary.LostDeals)
	require.Len(t, summary.StageBreakdown, 3)
	// Breakdown follows pipeline order.
	assert.Equal(t, crm.DealStageProposal, summary.StageBreakdown[0].Stage)
}

func TestLeadsSummaryWithFilter(t *testing.T) {
	s := seedStore(t)

	all, err := s.LeadsSummary(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalLeads)
	assert.Equal(t, 2, all.RecentLeads7Days)

	qualified, err := s.LeadsSummary(context.Background(), 1, crm.LeadStatusQualified)
	require.NoError(t, err)
	assert.Equal(t, 1, qualified.TotalLeads)
}

func TestSearchDealsMatchesContactFields(t *testing.T) {
	s := seedStore(t)

	matches, err := s.SearchDeals(context.Background(), 1, "ana", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = s.SearchDeals(context.Background(), 1, "renewal", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Acme renewal", matches[0].Name)
	assert.Equal(t, "Ana Pop", matches[0].Contact)
}

func TestSearchLimit(t *testing.T) {
	s := seedStore(t)

	matches, err := s.SearchLeads(context.Background(), 1, "", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
