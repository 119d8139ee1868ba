// Package preflight provides readiness checks for the external services
// and filesystem paths a pipeline run depends on.
//
// These checks run in two contexts:
//   - The CLI "wordmill check" command calls RunAll so an operator can catch
//     a missing key or an unwritable store before a run spends tokens on it.
//   - The CLI "wordmill status" command uses the FromConfig helpers
//     (CheckSyncFromConfig, CheckNotificationsFromConfig) to display
//     per-feature health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
