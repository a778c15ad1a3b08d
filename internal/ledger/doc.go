// Package ledger records verification receipts in SQLite.
//
// A receipt is the persisted summary of one verification report. Receipts
// are content addressed: recording the same outcome for the same artifact
// content twice is a no-op. The ledger never stores the artifact itself.
//
// The ledger is optional; verification never depends on it.
package ledger
