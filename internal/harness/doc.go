// Package harness provides a conformance testing framework for the Comet
// shortcut engine.
//
// Scenarios are YAML files that register shortcut nodes (inline or from a
// CUE registry directory), execute a flow of shortcuts against contexts,
// and assert on the resulting audit log. Every run uses deterministic time
// and record-ID sources, so the same scenario always produces a
// byte-identical event log - which is what makes golden-file comparison
// via goldie meaningful.
//
// Unlike a mocked trace writer, the harness drives the real engine: events
// in the log are read back from engine.ExecutionLog after genuine Execute
// calls, and the replay_clean assertion re-verifies them through
// engine.VerifyRecords.
package harness
