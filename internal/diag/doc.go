// Package diag defines the diagnostic model shared by all checking phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the scope builder, lifetime resolver, and borrow walk.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt;
// orchestration lives in internal/checker and internal/driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//     Codes are grouped in thousand-ranges; Code.Kind() collapses a code into
//     one of the four finding kinds the checker reports (structural, arity
//     mismatch, conflicting borrow, dangling reference) plus the hosting-tool
//     ranges (IO, observability).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. “value
// declared here”) rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Phases use a diag.Reporter to decouple emission from storage. A phase
// constructs a ReportBuilder via ReportError/ReportWarning/ReportInfo and
// chains WithNote before calling Emit. When no extra metadata is needed,
// phases may call Reporter.Report(...) directly. diag.BagReporter aggregates
// diagnostics into a Bag, which preserves discovery order and supports
// deduplication and sorting for rendering.
//
// Keep the data model deterministic: a check run must produce the same
// sequence of diagnostics for the same input every time, so results can be
// cached, diffed, and asserted against goldens.
package diag
