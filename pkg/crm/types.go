package crm

import (
	"time"
)

// LeadStatus is the lifecycle status of a lead.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusUnqualified LeadStatus = "unqualified"
)

// LeadStatuses lists the valid lead statuses in lifecycle order.
func LeadStatuses() []LeadStatus {
	return []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusUnqualified}
}

// Valid reports whether s is one of the closed status set.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusUnqualified:
		return true
	}
	return false
}

// DealStage is the pipeline stage of a deal.
type DealStage string

const (
	DealStageProspect      DealStage = "prospect"
	DealStageQualification DealStage = "qualification"
	DealStageProposal      DealStage = "proposal"
	DealStageNegotiation   DealStage = "negotiation"
	DealStageClosedWon     DealStage = "closed_won"
	DealStageClosedLost    DealStage = "closed_lost"
)

// DealStages lists the valid deal stages in pipeline order.
func DealStages() []DealStage {
	return []DealStage{
		DealStageProspect, DealStageQualification, DealStageProposal,
		DealStageNegotiation, DealStageClosedWon, DealStageClosedLost,
	}
}

// Valid reports whether s is one of the closed stage set.
func (s DealStage) Valid() bool {
	switch s {
	case DealStageProspect, DealStageQualification, DealStageProposal,
		DealStageNegotiation, DealStageClosedWon, DealStageClosedLost:
		return true
	}
	return false
}

// Closed reports whether the stage is terminal.
func (s DealStage) Closed() bool {
	return s == DealStageClosedWon || s == DealStageClosedLost
}

// Lead is a sales lead owned by an account.
type Lead struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"-"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Company   string     `json:"company,omitempty"`
	Status    LeadStatus `json:"status"`
	Source    string     `json:"source,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy int64      `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// Contact is a qualified person associated with deals.
type Contact struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"-"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Title      string    `json:"title,omitempty"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Deal is an opportunity in the pipeline, always tied to a contact.
type Deal struct {
	ID                int64      `json:"id"`
	AccountID         int64      `json:"-"`
	Name              string     `json:"name"`
	ContactID         int64      `json:"contact_id"`
	Amount            float64    `json:"amount"`
	Stage             DealStage  `json:"stage"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedBy         int64      `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewLead is the input for creating a lead.
type NewLead struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Source    string
	Notes     string
}

// NewDeal is the input for creating a deal.
type NewDeal struct {
	Name              string
	ContactID         int64
	Amount            float64
	Probability       int
	ExpectedCloseDate *time.Time
	Notes             string
}

// StageBreakdown is the per-stage slice of a pipeline summary.
type StageBreakdown struct {
	Stage      DealStage `json:"stage"`
	Count      int       `json:"count"`
	TotalValue float64   `json:"total_value"`
}

// PipelineSummary aggregates an account's deals.
type PipelineSummary struct {
	TotalDeals      int              `json:"total_deals"`
	TotalValue      float64          `json:"total_value"`
	AverageDealSize float64          `json:"average_deal_size"`
	ActiveDeals     int              `json:"active_deals"`
	WonDeals        int              `json:"won_deals"`
	LostDeals       int              `json:"lost_deals"`
	StageBreakdown  []StageBreakdown `json:"stage_breakdown"`
}

// StatusBreakdown is the per-status slice of a leads summary.
type StatusBreakdown struct {
	Status LeadStatus `json:"status"`
	Count  int        `json:"count"`
}

// LeadsSummary aggregates an account's leads.
type LeadsSummary struct {
	TotalLeads       int               `json:"total_leads"`
	RecentLeads7Days int               `json:"recent_leads_7_days"`
	StatusBreakdown  []StatusBreakdown `json:"status_breakdown"`
}

// LeadMatch is a search hit over leads.
type LeadMatch struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Company string     `json:"company,omitempty"`
	Status  LeadStatus `json:"status"`
}

// DealMatch is a search hit over deals.
type DealMatch struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	Stage       DealStage `json:"stage"`
	Probability int       `json:"probability"`
	Contact     string    `json:"contact"`
}
