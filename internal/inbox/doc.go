// Package inbox reads the capture queue and consolidates stray fragments.
//
// Captures land in a cloud-synced directory as JSON Lines. Sync conflicts
// and partial uploads leave sibling fragment files next to the canonical
// queue; Merge folds them back in, line-unique, and archives the consumed
// fragments so a later merge never sees them again. ReadEntries parses the
// queue tolerantly: lines that fail to parse are skipped, recognized shapes
// are flattened into a list of raw capture strings.
package inbox
