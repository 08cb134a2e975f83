package tools

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrUnknownTool is returned on lookup of a name absent from the catalog.
	ErrUnknownTool = errors.New("unknown tool")
)

// CatalogBuilder accumulates tool definitions during process initialization.
// It is the only writer; once Build is called the builder is discarded and
// the resulting Catalog is read-only.
type CatalogBuilder struct {
	version string
	tools   map[string]*ToolDefinition
}

// NewCatalogBuilder creates a builder for a catalog with the given version.
func NewCatalogBuilder(version string) *CatalogBuilder {
	return &CatalogBuilder{
		version: version,
		tools:   map[string]*ToolDefinition{},
	}
}

// Register adds a definition. Fails with ErrDuplicateTool if the name is taken.
func (b *CatalogBuilder) Register(def *ToolDefinition) error {
	if def == nil || def.Name == "" {
		return errors.New("tool definition requires a name")
	}
	if _, ok := b.tools[def.Name]; ok {
		return errors.Wrap(ErrDuplicateTool, def.Name)
	}
	compiled, err := compileSchema(def.Parameters)
	if err != nil {
		return errors.Wrapf(err, "compile parameter schema for %s", def.Name)
	}
	def.compiled = compiled
	b.tools[def.Name] = def
	return nil
}

// MustRegister registers a definition built by fn, panicking on error. Meant
// for startup wiring where a bad definition is a programming error.
func (b *CatalogBuilder) MustRegister(def *ToolDefinition, err error) {
	if err != nil {
		panic(err)
	}
	if err := b.Register(def); err != nil {
		panic(err)
	}
}

// Build freezes the builder into an immutable Catalog.
func (b *CatalogBuilder) Build() *Catalog {
	names := make([]string, 0, len(b.tools))
	for name := range b.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Debug().Str("version", b.version).Int("tool_count", len(names)).Msg("tools: catalog built")
	return &Catalog{version: b.version, tools: b.tools, names: names}
}

// Catalog is the process-wide registry of tools. It is built once at startup
// and never mutated afterwards, so concurrent readers need no locking.
type Catalog struct {
	version string
	tools   map[string]*ToolDefinition
	names   []string
}

// Version identifies the catalog build; suggestion determinism is keyed on it.
func (c *Catalog) Version() string {
	return c.version
}

// Lookup returns the definition for name, or ErrUnknownTool.
func (c *Catalog) Lookup(name string) (*ToolDefinition, error) {
	def, ok := c.tools[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTool, name)
	}
	return def, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.tools[name]
	return ok
}

// Names returns the registered tool names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// List returns all definitions in name order.
func (c *Catalog) List() []*ToolDefinition {
	out := make([]*ToolDefinition, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	return len(c.tools)
}
