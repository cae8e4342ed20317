// Package checker holds the five validation modules and their shared
// result model.
//
// Architecture overview:
//
//   - Modules implement the Module interface (Name + RunAll) for one
//     concern each: DNS/TLS/CDN posture, security probing, database and
//     control-plane health, HTTP endpoint derivation, and functional
//     page behavior.
//   - Every check produces an immutable TestResult with a pass/fail/warn/
//     skip outcome; Summarize derives the Tally counters from a result
//     list, so no check mutates shared state.
//   - Transport errors are recorded as results inside a module, never
//     returned from RunAll. A returned error means the module itself
//     broke, and the runner records it in place of the module's results.
//   - The functional module renders pages through a PageRenderer chosen
//     once per run: a headless browser when one launches, a plain HTTP
//     client otherwise.
//
// This layout keeps probing logic internal while cmd/ simply instantiates
// modules and feeds them to the runner.
package checker
