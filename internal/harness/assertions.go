package harness

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/rollbook/internal/ledger"
)

// AssertionError is returned when an assertion fails.
// It includes the final collection to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Final    []ledger.Record // Collection after the last step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFinal records:\n")
	for _, r := range e.Final {
		fmt.Fprintf(&buf, "  [%d] %s %q %q owner=%s referenced=%t\n",
			r.CreatedAt, r.ID, r.Name, r.Topic, r.OwnerID, r.Referenced)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, aliases map[string]int64) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, aliases); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i+1, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, aliases map[string]int64) error {
	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(result.Final, a)
	case AssertRecord, AssertAbsent:
		key, ok := refKey(a.Ref, aliases)
		if !ok {
			return fmt.Errorf("alias %q was never bound", a.Ref)
		}
		if a.Type == AssertAbsent {
			return assertAbsent(result.Final, a, key)
		}
		return assertRecord(result.Final, a, key)
	case AssertIdentity:
		return assertIdentity(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRecordCount(final []ledger.Record, a Assertion) error {
	if len(final) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecordCount,
		Expected: fmt.Sprintf("%d records", a.Count),
		Actual:   fmt.Sprintf("%d records", len(final)),
		Final:    final,
	}
}

func assertRecord(final []ledger.Record, a Assertion, key int64) error {
	i := slices.IndexFunc(final, func(r ledger.Record) bool { return r.CreatedAt == key })
	if i < 0 {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s (key %d) present", a.Ref, key),
			Actual:   "not found",
			Final:    final,
		}
	}
	if msg := matchRecord(final[i], a.Expect); msg != "" {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s matches %v", a.Ref, a.Expect),
			Actual:   msg,
			Final:    final,
		}
	}
	return nil
}

func assertAbsent(final []ledger.Record, a Assertion, key int64) error {
	if !slices.ContainsFunc(final, func(r ledger.Record) bool { return r.CreatedAt == key }) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("record %s (key %d) absent", a.Ref, key),
		Actual:   "present",
		Final:    final,
	}
}

func assertIdentity(result *Result, a Assertion) error {
	if result.Identity == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertIdentity,
		Expected: fmt.Sprintf("identity %q", a.Value),
		Actual:   fmt.Sprintf("identity %q", result.Identity),
		Final:    result.Final,
	}
}

// refKey maps a record reference to a key. Numeric references are keys; an
// alias is bound once its create step succeeds.
func refKey(ref string, aliases map[string]int64) (int64, bool) {
	if key, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return key, true
	}
	key, ok := aliases[ref]
	return key, ok
}

// recordFields exposes a record's fields under their snapshot names.
func recordFields(r ledger.Record) map[string]any {
	return map[string]any{
		"serial":     r.Serial,
		"id":         r.ID,
		"name":       r.Name,
		"topic":      r.Topic,
		"owner_id":   r.OwnerID,
		"referenced": r.Referenced,
		"created_at": r.CreatedAt,
	}
}

// matchRecord checks expected fields against r (subset semantics).
// Values are compared by their printed form so YAML ints match int64 keys.
// Returns "" on match.
func matchRecord(r ledger.Record, expected map[string]any) string {
	actual := recordFields(r)

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("unknown field %q", k))
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(expected[k]) {
			mismatches = append(mismatches, fmt.Sprintf("%s = %v, want %v", k, got, expected[k]))
		}
	}
	return strings.Join(mismatches, "; ")
}
