package env

// Scope is the two-tier lookup used while running one document: scenario
// variables shadow environment variables.
type Scope struct {
	Scenario    *Vars
	Environment *Vars
}

func NewScope(scenario, environment *Vars) *Scope {
	if scenario == nil {
		scenario = NewVars()
	}
	if environment == nil {
		environment = NewVars()
	}
	return &Scope{Scenario: scenario, Environment: environment}
}

// Lookup checks the scenario tier first, then the environment tier.
func (s *Scope) Lookup(name string) (value any, scenario bool, ok bool) {
	if v, found := s.Scenario.Get(name); found {
		return v, true, true
	}
	if v, found := s.Environment.Get(name); found {
		return v, false, true
	}
	return nil, false, false
}

// Update writes value into every tier that declares name. It reports whether
// any tier was written.
func (s *Scope) Update(name string, value any) bool {
	inScenario := s.Scenario.Update(name, value)
	inEnvironment := s.Environment.Update(name, value)
	return inScenario || inEnvironment
}

func (s *Scope) Declared(name string) bool {
	return s.Scenario.Has(name) || s.Environment.Has(name)
}

// Merged returns the environment values overlaid with the scenario values.
func (s *Scope) Merged() map[string]any {
	out := s.Environment.Snapshot()
	for k, v := range s.Scenario.Snapshot() {
		out[k] = v
	}
	return out
}
