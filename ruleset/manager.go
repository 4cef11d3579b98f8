package ruleset

import (
	"fmt"

	"github.com/verdict-engine/verdict"
)

// Manager ties the pieces together: it keeps definitions in a Store,
// their CEL programs warm in a Compiler, and the active list in a Cache,
// and serves per-request validation contexts. Definition updates are
// zero-downtime: a new version is compiled before the old one is
// replaced, so in-flight validations never see a half-updated set.
type Manager struct {
	store    Store
	cache    Cache
	compiler *Compiler
	reporter verdict.Reporter
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCache replaces the default in-memory definitions cache.
func WithCache(c Cache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithReporter forwards violations observed during Validate to the sink.
func WithReporter(r verdict.Reporter) ManagerOption {
	return func(m *Manager) { m.reporter = r }
}

// NewManager creates a manager and compiles all active definitions from
// the store so the first validation request pays no compilation cost.
func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	compiler, err := NewCompiler()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:    store,
		cache:    NewInMemoryCache(DefaultCacheConfig()),
		compiler: compiler,
		reporter: verdict.NopReporter{},
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.loadActive(); err != nil {
		return nil, fmt.Errorf("failed to compile rulesets: %w", err)
	}
	return m, nil
}

func (m *Manager) loadActive() error {
	defs, err := m.store.ListActive()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := m.compiler.CompileSet(def); err != nil {
			return fmt.Errorf("ruleset %s: %w", def.ID, err)
		}
	}
	m.cache.Set(defs)
	return nil
}

// Create validates, compiles and stores a new definition. Compilation
// happens first so a definition with a broken expression never reaches
// the store; if the store rejects it the compiled programs are evicted
// again.
func (m *Manager) Create(def *Definition) error {
	// Check existence before compiling so a duplicate never overwrites the
	// established set's programs.
	if _, err := m.store.Get(def.ID); err == nil {
		return fmt.Errorf("ruleset with ID %s already exists", def.ID)
	}

	if err := ValidateDefinition(def); err != nil {
		return fmt.Errorf("ruleset validation failed: %w", err)
	}
	if err := m.compiler.CompileSet(def); err != nil {
		return fmt.Errorf("ruleset compilation failed: %w", err)
	}
	if err := m.store.Add(def); err != nil {
		m.compiler.EvictSet(def.ID)
		return err
	}
	m.cache.Invalidate()
	return nil
}

// Update replaces an existing definition. The new version is validated
// and compiled before the store is touched, so readers switch from the
// old programs to the new ones atomically.
func (m *Manager) Update(def *Definition) error {
	if err := ValidateDefinition(def); err != nil {
		return fmt.Errorf("ruleset validation failed: %w", err)
	}
	if err := m.compiler.CompileSet(def); err != nil {
		return fmt.Errorf("ruleset compilation failed: %w", err)
	}
	if err := m.store.Update(def); err != nil {
		return err
	}
	m.cache.Invalidate()
	return nil
}

// Get retrieves a definition by ID.
func (m *Manager) Get(id string) (*Definition, error) {
	return m.store.Get(id)
}

// Delete removes a definition and its compiled programs.
func (m *Manager) Delete(id string) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.compiler.EvictSet(id)
	m.cache.Invalidate()
	return nil
}

// ListActive returns the active definitions, served from cache when warm.
func (m *Manager) ListActive() ([]*Definition, error) {
	if defs := m.cache.Get(); defs != nil {
		return defs, nil
	}
	defs, err := m.store.ListActive()
	if err != nil {
		return nil, err
	}
	m.cache.Set(defs)
	return defs, nil
}

// BuildRules binds an active definition to a target document and returns
// the top-level rules, ready to register in a validation context.
func (m *Manager) BuildRules(id string, target map[string]any) ([]verdict.Rule, error) {
	def, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !def.Active {
		return nil, fmt.Errorf("ruleset %s is not active", id)
	}
	return m.compiler.Build(def, target)
}

// Validate builds a fresh context for the definition and target, renders
// it, and returns it for verdict inspection. Each call gets its own
// context; nothing is shared between concurrent validations.
func (m *Manager) Validate(id string, target map[string]any) (*verdict.Context, error) {
	rules, err := m.BuildRules(id, target)
	if err != nil {
		return nil, err
	}

	vc := verdict.NewContext(verdict.WithReporter(m.reporter))
	vc.AddRule(rules...)
	return vc.Render()
}
