package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldsync/internal/clock"
)

// DefaultStart is the clock start used when a scenario does not set one.
const DefaultStart = "2025-01-01 08:00:00"

// Scenario describes a field day: device state changes driven through the
// store, the rollover engine and the remote syncer, followed by assertions
// on the trace and the final tables.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Start is the wall-clock time the run begins at, in
	// clock.TimestampLayout. Empty means DefaultStart.
	Start string `yaml:"start,omitempty"`

	// Seed turns the demo customers and catalog off when false.
	Seed *bool `yaml:"seed,omitempty"`

	PhoneRegion string `yaml:"phone_region,omitempty"`

	// IDPrefix prefixes generated record ids; "id" when empty.
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Setup runs before the flow and must succeed. It is traced but not
	// checked against expectations.
	Setup      []ActionStep `yaml:"setup,omitempty"`
	Flow       []FlowStep   `yaml:"flow"`
	Assertions []Assertion  `yaml:"assertions"`
}

// ActionStep is one setup action.
type ActionStep struct {
	Action string                 `yaml:"action"`
	Args   map[string]interface{} `yaml:"args"`
}

// FlowStep is one flow action. Without Expect the action must succeed.
type FlowStep struct {
	Invoke string                 `yaml:"invoke"`
	Args   map[string]interface{} `yaml:"args"`
	Expect *ExpectClause          `yaml:"expect,omitempty"`
}

// ExpectClause is the outcome a flow step must end with. Result lists
// fields the step's result must hold; other fields are ignored.
type ExpectClause struct {
	Case   string                 `yaml:"case"`
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion checks the trace or the store once the flow has run.
//
// Trace assertions (trace_contains, trace_order, trace_count) look at the
// steps of the run; Args and Case narrow which steps count. Store
// assertions (final_state, row_count) query a table filtered by Where.
type Assertion struct {
	Type string `yaml:"type"`

	// Action and Args select steps for trace_contains and trace_count.
	// Args is a subset match.
	Action string                 `yaml:"action,omitempty"`
	Args   map[string]interface{} `yaml:"args,omitempty"`

	// Case, when set, also requires the step's outcome.
	Case string `yaml:"case,omitempty"`

	// Actions lists action names in the order their first runs must appear.
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of matching steps or rows.
	Count int `yaml:"count,omitempty"`

	Table string                 `yaml:"table,omitempty"`
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect holds column values the single matching row must have.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

// Outcome cases reported for each step.
const (
	CaseSuccess  = "Success"
	CaseNotFound = "NotFound"
	CaseInvalid  = "Invalid"
	CaseError    = "Error"
)

func knownCase(c string) bool {
	switch c {
	case CaseSuccess, CaseNotFound, CaseInvalid, CaseError:
		return true
	}
	return false
}

// LoadScenario reads and validates the scenario at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown keys are
// rejected, so a misspelled "assertion:" fails instead of being ignored.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func (s *Scenario) seedEnabled() bool {
	return s.Seed == nil || *s.Seed
}

func (s *Scenario) startTime() (time.Time, error) {
	start := s.Start
	if start == "" {
		start = DefaultStart
	}
	return time.ParseInLocation(clock.TimestampLayout, start, time.Local)
}

func (s *Scenario) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("name is required")
	case s.Description == "":
		return fmt.Errorf("description is required")
	case len(s.Flow) == 0:
		return fmt.Errorf("flow list is required and must be non-empty")
	case len(s.Assertions) == 0:
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if _, err := s.startTime(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	for i, step := range s.Setup {
		if err := checkStep("action", step.Action, step.Args); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := checkStep("invoke", step.Invoke, step.Args); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect == nil {
			continue
		}
		if step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
		if !knownCase(step.Expect.Case) {
			return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkStep validates one setup or flow step. key is the YAML key naming
// the action, used in messages.
func checkStep(key, action string, args map[string]interface{}) error {
	switch {
	case action == "":
		return fmt.Errorf("%s is required", key)
	case !knownAction(action):
		return fmt.Errorf("unknown action %q", action)
	case args == nil:
		return fmt.Errorf("args is required (use empty map if no args)")
	}
	return nil
}

// validateAssertion checks that a carries the fields its type needs.
func validateAssertion(index int, a *Assertion) error {
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("assertions[%d]: "+format, append([]interface{}{index}, args...)...)
	}

	if a.Case != "" && !knownCase(a.Case) {
		return fail("unknown case %q", a.Case)
	}

	switch a.Type {
	case "":
		return fail("type is required")
	case AssertTraceContains:
		if a.Action == "" {
			return fail("action is required for %s", a.Type)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fail("actions list is required for %s", a.Type)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fail("action is required for %s", a.Type)
		}
		if a.Count < 0 {
			return fail("count must be non-negative for %s", a.Type)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fail("table is required for %s", a.Type)
		}
		if len(a.Expect) == 0 {
			return fail("expect is required for %s", a.Type)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fail("table is required for %s", a.Type)
		}
		if a.Count < 0 {
			return fail("count must be non-negative for %s", a.Type)
		}
	default:
		return fail("unknown assertion type %q", a.Type)
	}
	return nil
}
