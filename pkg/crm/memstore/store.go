// Package memstore is an in-memory, account-partitioned implementation of
// the CRM capability set. It backs the CLI and the test suites; production
// deployments swap in a store over the real CRM services.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/moldcrm/agent/pkg/crm"
)

const defaultSearchLimit = 10

// Store holds leads, contacts, and deals partitioned by account.
type Store struct {
	mu       sync.RWMutex
	leads    map[int64]*crm.Lead
	contacts map[int64]*crm.Contact
	deals    map[int64]*crm.Deal
	nextID   int64
}

var _ crm.Service = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		leads:    map[int64]*crm.Lead{},
		contacts: map[int64]*crm.Contact{},
		deals:    map[int64]*crm.Deal{},
		nextID:   1,
	}
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) GetLead(_ context.Context, accountID, leadID int64) (*crm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[leadID]
	if !ok || lead.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "lead %d", leadID)
	}
	out := *lead
	return &out, nil
}

func (s *Store) GetDeal(_ context.Context, accountID, dealID int64) (*crm.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[dealID]
	if !ok || deal.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "deal %d", dealID)
	}
	out := *deal
	return &out, nil
}

func (s *Store) GetContact(_ context.Context, accountID, contactID int64) (*crm.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[contactID]
	if !ok || contact.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "contact %d", contactID)
	}
	out := *contact
	return &out, nil
}

func (s *Store) CreateLead(_ context.Context, accountID, userID int64, in crm.NewLead) (*crm.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	for _, existing := range s.leads {
		if existing.AccountID == accountID && strings.ToLower(existing.Email) == email {
			return nil, errors.Wrap(crm.ErrDuplicateEmail, in.Email)
		}
	}

	lead := &crm.Lead{
		ID:        s.allocID(),
		AccountID: accountID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Status:    crm.LeadStatusNew,
		Source:    in.Source,
		Notes:     in.Notes,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	s.leads[lead.ID] = lead
	out := *lead
	return &out, nil
}

func (s *Store) CreateDeal(_ context.Context, accountID, userID int64, in crm.NewDeal) (*crm.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[in.ContactID]
	if !ok || contact.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "contact %d", in.ContactID)
	}

	deal := &crm.Deal{
		ID:                s.allocID(),
		AccountID:         accountID,
		Name:              in.Name,
		ContactID:         in.ContactID,
		Amount:            in.Amount,
		Stage:             crm.DealStageProspect,
		Probability:       in.Probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Notes:             in.Notes,
		CreatedBy:         userID,
		CreatedAt:         time.Now().UTC(),
	}
	s.deals[deal.ID] = deal
	out := *deal
	return &out, nil
}

func (s *Store) UpdateLeadStatus(_ context.Context, accountID, leadID int64, status crm.LeadStatus) (*crm.Lead, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(crm.ErrInvalidTransition, "status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[leadID]
	if !ok || lead.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "lead %d", leadID)
	}
	lead.Status = status
	out := *lead
	return &out, nil
}

func (s *Store) UpdateDealStage(_ context.Context, accountID, dealID int64, stage crm.DealStage) (*crm.Deal, error) {
	if !stage.Valid() {
		return nil, errors.Wrapf(crm.ErrInvalidTransition, "stage %q", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[dealID]
	if !ok || deal.AccountID != accountID {
		return nil, errors.Wrapf(crm.ErrNotFound, "deal %d", dealID)
	}
	deal.Stage = stage
	out := *deal
	return &out, nil
}

func (s *Store) PipelineSummary(_ context.Context, accountID int64) (*crm.PipelineSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &crm.PipelineSummary{}
	byStage := map[crm.DealStage]*crm.StageBreakdown{}
	for _, deal := range s.deals {
		if deal.AccountID != accountID {
			continue
		}
		summary.TotalDeals++
		summary.TotalValue += deal.Amount
		switch {
		case deal.Stage == crm.DealStageClosedWon:
			summary.WonDeals++
		case deal.Stage == crm.DealStageClosedLost:
			summary.LostDeals++
		default:
			summary.ActiveDeals++
		}
		entry, ok := byStage[deal.Stage]
		if !ok {
			entry = &crm.StageBreakdown{Stage: deal.Stage}
			byStage[deal.Stage] = entry
		}
		entry.Count++
		entry.TotalValue += deal.Amount
	}
	if summary.TotalDeals > 0 {
		summary.AverageDealSize = summary.TotalValue / float64(summary.TotalDeals)
	}
	for _, stage := range crm.DealStages() {
		if entry, ok := byStage[stage]; ok {
			summary.StageBreakdown = append(summary.StageBreakdown, *entry)
		}
	}
	return summary, nil
}

func (s *Store) LeadsSummary(_ context.Context, accountID int64, statusFilter crm.LeadStatus) (*crm.LeadsSummary, error) {
	if statusFilter != "" && !statusFilter.Valid() {
		return nil, errors.Wrapf(crm.ErrInvalidTransition, "status %q", statusFilter)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &crm.LeadsSummary{}
	byStatus := map[crm.LeadStatus]int{}
	cutoff := time.Now().UTC().AddDate(0, 0, -7)
	for _, lead := range s.leads {
		if lead.AccountID != accountID {
			continue
		}
		if statusFilter != "" && lead.Status != statusFilter {
			continue
		}
		summary.TotalLeads++
		byStatus[lead.Status]++
		if lead.CreatedAt.After(cutoff) {
			summary.RecentLeads7Days++
		}
	}
	for _, status := range crm.LeadStatuses() {
		if count, ok := byStatus[status]; ok {
			summary.StatusBreakdown = append(summary.StatusBreakdown, crm.StatusBreakdown{Status: status, Count: count})
		}
	}
	return summary, nil
}

func (s *Store) SearchLeads(_ context.Context, accountID int64, query string, limit int) ([]crm.LeadMatch, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []crm.LeadMatch
	for _, lead := range s.leads {
		if lead.AccountID != accountID {
			continue
		}
		if !containsFold(needle, lead.FirstName, lead.LastName, lead.Email, lead.Company) {
			continue
		}
		matches = append(matches, crm.LeadMatch{
			ID:      lead.ID,
			Name:    lead.FullName(),
			Email:   lead.Email,
			Company: lead.Company,
			Status:  lead.Status,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) SearchDeals(_ context.Context, accountID int64, query string, limit int) ([]crm.DealMatch, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []crm.DealMatch
	for _, deal := range s.deals {
		if deal.AccountID != accountID {
			continue
		}
		contactName, contactCompany := "", ""
		if contact, ok := s.contacts[deal.ContactID]; ok {
			contactName = contact.FullName()
			contactCompany = contact.Company
		}
		if !containsFold(needle, deal.Name, contactName, contactCompany) {
			continue
		}
		matches = append(matches, crm.DealMatch{
			ID:          deal.ID,
			Name:        deal.Name,
			Amount:      deal.Amount,
			Stage:       deal.Stage,
			Probability: deal.Probability,
			Contact:     contactName,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// AddContact seeds a contact directly, bypassing the capability surface.
func (s *Store) AddContact(contact crm.Contact) *crm.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == 0 {
		contact.ID = s.allocID()
	} else if contact.ID >= s.nextID {
		s.nextID = contact.ID + 1
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}
	stored := contact
	s.contacts[stored.ID] = &stored
	out := stored
	return &out
}

// AddDeal seeds a deal directly, bypassing the capability surface.
func (s *Store) AddDeal(deal crm.Deal) *crm.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deal.ID == 0 {
		deal.ID = s.allocID()
	} else if deal.ID >= s.nextID {
		s.nextID = deal.ID + 1
	}
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now().UTC()
	}
	if deal.Stage == "" {
		deal.Stage = crm.DealStageProspect
	}
	stored := deal
	s.deals[stored.ID] = &stored
	out := stored
	return &out
}

// AddLead seeds a lead directly, bypassing the capability surface.
func (s *Store) AddLead(lead crm.Lead) *crm.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.ID == 0 {
		lead.ID = s.allocID()
	} else if lead.ID >= s.nextID {
		s.nextID = lead.ID + 1
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	if lead.Status == "" {
		lead.Status = crm.LeadStatusNew
	}
	stored := lead
	s.leads[stored.ID] = &stored
	out := stored
	return &out
}

func containsFold(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
