// Package harness replays YAML scenarios against a ledger and checks the
// outcome of every step, the final collection, and a golden trace.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_token: optional-fixed-token
//	steps:
//	  - identity: S1
//	  - create: { as: r1, name: Alice, topic: Math }
//	    expect:
//	      record: { serial: 1, id: STU-1 }
//	  - toggle: r1
//	  - edit: { record: r1, topic: Physics }
//	  - delete: r1
//	    expect: { error: RECORD_REFERENCED }
//	  - filter: "phys"
//	    expect: { ids: [STU-1] }
//	  - clear: true
//	assertions:
//	  - type: record_count
//	    count: 0
//	  - type: record
//	    ref: r1
//	    expect: { referenced: true }
//	  - type: absent
//	    ref: r1
//	  - type: identity
//	    value: S1
//
// Each step runs exactly one ledger operation. Records are referred to by the
// alias given at creation (create.as) or by a literal numeric key. A step
// without an expect clause must succeed; expect.error names the error code a
// rejection must carry.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a deterministic
// clock (keys 1, 2, 3, ...) and a fixed session token, so the trace is
// byte-identical across runs and can be compared with a golden file.
package harness
