package main

import (
	"time"

	"github.com/moldcrm/agent/pkg/crm"
	"github.com/moldcrm/agent/pkg/crm/memstore"
)

// seedDemoData loads a small account so the agent has something to talk
// about without a database.
func seedDemoData(store *memstore.Store) {
	const accountID = 1
	now := time.Now().UTC()

	ana := store.AddContact(crm.Contact{
		AccountID: accountID,
		FirstName: "Ana",
		LastName:  "Rusu",
		Email:     "ana.rusu@orheitex.md",
		Company:   "OrheiTex",
		Title:     "Procurement Manager",
		CreatedAt: now.AddDate(0, -2, 0),
	})
	ion := store.AddContact(crm.Contact{
		AccountID: accountID,
		FirstName: "Ion",
		LastName:  "Ceban",
		Email:     "ion.ceban@agrosud.md",
		Company:   "AgroSud",
		Title:     "Director",
		CreatedAt: now.AddDate(0, -1, -10),
	})

	store.AddDeal(crm.Deal{
		AccountID:   accountID,
		Name:        "OrheiTex fabric order",
		ContactID:   ana.ID,
		Amount:      18500,
		Stage:       crm.DealStageProposal,
		Probability: 60,
		CreatedAt:   now.AddDate(0, 0, -20),
	})
	store.AddDeal(crm.Deal{
		AccountID:   accountID,
		Name:        "AgroSud irrigation kit",
		ContactID:   ion.ID,
		Amount:      42000,
		Stage:       crm.DealStageNegotiation,
		Probability: 75,
		CreatedAt:   now.AddDate(0, 0, -12),
	})
	store.AddDeal(crm.Deal{
		AccountID:   accountID,
		Name:        "AgroSud spare parts",
		ContactID:   ion.ID,
		Amount:      6000,
		Stage:       crm.DealStageClosedWon,
		Probability: 100,
		CreatedAt:   now.AddDate(0, -1, 0),
	})

	store.AddLead(crm.Lead{
		AccountID: accountID,
		FirstName: "Maria",
		LastName:  "Popescu",
		Email:     "maria.popescu@vinariacricova.md",
		Company:   "Vinaria Cricova",
		Status:    crm.LeadStatusNew,
		Source:    "website",
		CreatedAt: now.AddDate(0, 0, -2),
	})
	store.AddLead(crm.Lead{
		AccountID: accountID,
		FirstName: "Dumitru",
		LastName:  "Lungu",
		Email:     "d.lungu@balticonstruct.md",
		Company:   "BaltiConstruct",
		Status:    crm.LeadStatusContacted,
		Source:    "referral",
		CreatedAt: now.AddDate(0, 0, -15),
	})
}
