// Package harness runs grammar scenarios: a named input, the grammar to
// parse it with, the expected outcome, and assertions over the engine trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: let_commits
//	description: "a broken let is a syntax error, not an identifier"
//	grammar: lambda
//	input: "let = 5"
//	expect:
//	  ok: false
//	  offset: 4
//	  message_contains: "expected identifier"
//	assertions:
//	  - type: trace_contains
//	    kind: escalate
//	  - type: trace_order
//	    events:
//	      - { kind: commit }
//	      - { kind: escalate }
//	  - type: final_state
//	    table: runs
//	    where: { status: fail }
//	    expect: { fail_offset: 4 }
//
// Unknown fields are rejected.
//
// # Assertion Types
//
//   - trace_contains: some event has the given kind (and label, offset)
//   - trace_order: events appear in the given order, gaps allowed
//   - trace_count: exactly N events have the given kind (and label)
//   - final_state: one row of runs or trace_events matches where and expect
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a logical clock
// starting at 0 and run IDs derived from the scenario name, so repeated runs
// produce identical traces. Golden files hold the canonical JSON Snapshot of
// the outcome.
package harness
