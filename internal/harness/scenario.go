package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rollbook/internal/ledger"
)

// Scenario defines a replayable sequence of ledger operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionToken is an optional fixed session token.
	// If empty, defaults to "test-session-default".
	SessionToken string `yaml:"session_token,omitempty"`

	// Steps run in order against one ledger.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final collection and session.
	Assertions []Assertion `yaml:"assertions"`
}

// Step runs exactly one ledger operation.
type Step struct {
	Identity *string     `yaml:"identity,omitempty"`
	Create   *CreateStep `yaml:"create,omitempty"`
	Toggle   string      `yaml:"toggle,omitempty"`
	Edit     *EditStep   `yaml:"edit,omitempty"`
	Delete   string      `yaml:"delete,omitempty"`
	Clear    bool        `yaml:"clear,omitempty"`
	Filter   *string     `yaml:"filter,omitempty"`

	// Expect describes the outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// CreateStep creates a record and optionally names it for later steps.
type CreateStep struct {
	As    string `yaml:"as,omitempty"`
	Name  string `yaml:"name"`
	Topic string `yaml:"topic"`
}

// EditStep patches a record. Omitted fields stay unchanged.
type EditStep struct {
	Record string  `yaml:"record"`
	Name   *string `yaml:"name,omitempty"`
	Topic  *string `yaml:"topic,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error code, e.g. "NOT_OWNER". Empty means success.
	Error string `yaml:"error,omitempty"`

	// Record is a subset match against the record the step returned.
	Record map[string]any `yaml:"record,omitempty"`

	// IDs is the exact, ordered list of ids a filter step must yield.
	IDs []string `yaml:"ids,omitempty"`
}

// Assertion validates the state after all steps ran.
type Assertion struct {
	// Type is one of record_count, record, absent, identity.
	Type string `yaml:"type"`

	// Count is the expected number of records (record_count).
	Count int `yaml:"count,omitempty"`

	// Ref is a record alias or numeric key (record, absent).
	Ref string `yaml:"ref,omitempty"`

	// Expect is a subset match on record fields (record).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Value is the expected active identity; empty means none (identity).
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount = "record_count"
	AssertRecord      = "record"
	AssertAbsent      = "absent"
	AssertIdentity    = "identity"
)

// Step operation names, as they appear in traces.
const (
	OpIdentity = "identity"
	OpCreate   = "create"
	OpToggle   = "toggle"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpClear    = "clear"
	OpFilter   = "filter"
)

// validCodes are the error codes a step may expect.
var validCodes = map[string]bool{
	string(ledger.CodeNoActiveIdentity): true,
	string(ledger.CodeEmptyIdentity):    true,
	string(ledger.CodeMissingField):     true,
	string(ledger.CodeNotFound):         true,
	string(ledger.CodeNotOwner):         true,
	string(ledger.CodeRecordReferenced): true,
	string(ledger.CodeIO):               true,
}

// Op returns the name of the step's operation, or "" if the step sets none
// or more than one.
func (s Step) Op() string {
	var ops []string
	if s.Identity != nil {
		ops = append(ops, OpIdentity)
	}
	if s.Create != nil {
		ops = append(ops, OpCreate)
	}
	if s.Toggle != "" {
		ops = append(ops, OpToggle)
	}
	if s.Edit != nil {
		ops = append(ops, OpEdit)
	}
	if s.Delete != "" {
		ops = append(ops, OpDelete)
	}
	if s.Clear {
		ops = append(ops, OpClear)
	}
	if s.Filter != nil {
		ops = append(ops, OpFilter)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	aliases := make(map[string]bool)
	for i, step := range s.Steps {
		op := step.Op()
		if op == "" {
			return fmt.Errorf("steps[%d]: exactly one operation is required", i)
		}
		if err := validateRefs(i, op, step, aliases); err != nil {
			return err
		}
		if step.Expect != nil {
			if step.Expect.Error != "" && !validCodes[step.Expect.Error] {
				return fmt.Errorf("steps[%d].expect: unknown error code %q", i, step.Expect.Error)
			}
			if step.Expect.IDs != nil && op != OpFilter {
				return fmt.Errorf("steps[%d].expect: ids only apply to filter", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, aliases); err != nil {
			return err
		}
	}

	return nil
}

// validateRefs checks that every alias a step uses was declared by an
// earlier create, and records aliases the step declares.
func validateRefs(i int, op string, step Step, aliases map[string]bool) error {
	var ref string
	switch op {
	case OpCreate:
		if a := step.Create.As; a != "" {
			if isKey(a) {
				return fmt.Errorf("steps[%d].create: alias %q must not be numeric", i, a)
			}
			if aliases[a] {
				return fmt.Errorf("steps[%d].create: duplicate alias %q", i, a)
			}
			aliases[a] = true
		}
		return nil
	case OpToggle:
		ref = step.Toggle
	case OpDelete:
		ref = step.Delete
	case OpEdit:
		ref = step.Edit.Record
		if ref == "" {
			return fmt.Errorf("steps[%d].edit: record is required", i)
		}
	default:
		return nil
	}
	if !isKey(ref) && !aliases[ref] {
		return fmt.Errorf("steps[%d].%s: unknown record %q", i, op, ref)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, aliases map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertRecord, AssertAbsent:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for %s", index, a.Type)
		}
		if !isKey(a.Ref) && !aliases[a.Ref] {
			return fmt.Errorf("assertions[%d]: unknown record %q", index, a.Ref)
		}
		if a.Type == AssertRecord && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	case AssertIdentity:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func isKey(ref string) bool {
	_, err := strconv.ParseInt(ref, 10, 64)
	return err == nil
}
