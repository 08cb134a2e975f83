// Package suggest produces follow-up query suggestions for the agent UI.
// Suggestion generation is a pure ranking over the caller's descriptor; it
// never calls the inference gateway and never executes tools, so it is safe
// to run on every page load.
package suggest

import (
	"github.com/moldcrm/agent/pkg/agent/tools"
)

const maxSuggestions = 5

// Descriptor carries the UI context suggestions are ranked against.
type Descriptor struct {
	// View is the screen the user is on: "leads", "deals", "contacts",
	// "pipeline", or "" when unknown.
	View string
	// RecentEntity names the entity type the user touched last, if any.
	RecentEntity string
	// RecentEntityID is the identifier of that entity, zero when unknown.
	RecentEntityID int64
	// PipelineEmpty is true when the account has no open deals.
	PipelineEmpty bool
	// LeadCount is the account's total lead count, negative when unknown.
	LeadCount int
}

// Engine ranks suggestions for one tool catalog. The catalog version pins
// the output: two engines over the same catalog version return identical
// suggestions for identical descriptors.
type Engine struct {
	catalog *tools.Catalog
}

// NewEngine creates a suggestion engine over the given catalog.
func NewEngine(catalog *tools.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Defaults are the stock suggestions shown when no descriptor signal applies.
func Defaults() []string {
	return []string{
		"Show me my pipeline summary",
		"What are my newest leads?",
		"Create a new lead",
	}
}

// Suggest returns at most five suggestions ranked for the descriptor.
// Rules fire in a fixed order so the result is deterministic; duplicates
// are dropped, keeping the first occurrence.
func (e *Engine) Suggest(d Descriptor) []string {
	var out []string

	switch d.View {
	case "leads":
		out = append(out,
			"Show me a summary of my leads",
			"Which leads are still uncontacted?",
		)
		if e.has("search_leads") {
			out = append(out, "Search my leads by company")
		}
	case "deals", "pipeline":
		out = append(out, "Show me my pipeline summary")
		if e.has("search_deals") {
			out = append(out, "Find my deals in negotiation")
		}
	case "contacts":
		if e.has("create_deal") {
			out = append(out, "Create a deal for one of my contacts")
		}
	}

	switch d.RecentEntity {
	case "lead":
		if e.has("update_lead_status") {
			out = append(out, "Mark my last lead as contacted")
		}
	case "deal":
		if e.has("update_deal_stage") {
			out = append(out, "Move my last deal to the next stage")
		}
	}

	if d.PipelineEmpty && e.has("create_deal") {
		out = append(out, "Create my first deal")
	}
	if d.LeadCount == 0 && e.has("create_lead") {
		out = append(out, "Create a new lead")
	}

	out = append(out, Defaults()...)
	return dedupe(out, maxSuggestions)
}

func (e *Engine) has(tool string) bool {
	return e.catalog != nil && e.catalog.Has(tool)
}

func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, limit)
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
