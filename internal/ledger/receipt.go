package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/proofcheck/internal/proof"
	"github.com/roach88/proofcheck/internal/verify"
)

// ErrNotFound is returned by Get for an unknown receipt ID.
var ErrNotFound = errors.New("receipt not found")

// timeLayout has fixed width so checked_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CheckOutcome is the persisted form of one check result.
type CheckOutcome struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Receipt is the persisted summary of one verification.
type Receipt struct {
	ID              string         `json:"id"`
	Hash            string         `json:"receipt_hash"`
	ArtifactPath    string         `json:"artifact_path"`
	ArtifactSHA256  string         `json:"artifact_sha256"`
	CanonicalDigest string         `json:"canonical_digest"`
	SchemaMode      string         `json:"schema_mode"`
	Passed          bool           `json:"passed"`
	Checks          []CheckOutcome `json:"checks"`
	VerifierVersion string         `json:"verifier_version"`
	CheckedAt       time.Time      `json:"checked_at"`
}

// FromReport builds a receipt (without ID) from a verification report.
// Reports that never got past loading have no content to address and are
// rejected.
func FromReport(r *verify.Report) (Receipt, error) {
	if r.CanonicalDigest == "" {
		return Receipt{}, fmt.Errorf("report for %q has no canonical digest", r.Path)
	}

	outcomes := r.Outcomes()
	if r.SchemaViolation != nil {
		outcomes = map[string]bool{"schema": false}
	}
	hash, err := proof.ReceiptHash(r.CanonicalDigest, string(r.SchemaMode), outcomes)
	if err != nil {
		return Receipt{}, err
	}

	checks := make([]CheckOutcome, 0, len(r.Checks))
	for _, c := range r.Checks {
		checks = append(checks, CheckOutcome{Name: c.Name, Passed: c.Passed, Message: c.Message})
	}
	if r.SchemaViolation != nil {
		checks = append(checks, CheckOutcome{Name: "schema", Passed: false, Message: r.SchemaViolation.Error()})
	}

	return Receipt{
		Hash:            hash,
		ArtifactPath:    r.Path,
		ArtifactSHA256:  r.ArtifactSHA256,
		CanonicalDigest: r.CanonicalDigest,
		SchemaMode:      string(r.SchemaMode),
		Passed:          r.Passed,
		Checks:          checks,
		VerifierVersion: r.VerifierVersion,
		CheckedAt:       r.CheckedAt,
	}, nil
}

// Record inserts a receipt, assigning an ID when it has none.
// Uses ON CONFLICT(receipt_hash) DO NOTHING for idempotency: recording an
// outcome that is already present returns the existing receipt and
// inserted=false.
func (l *Ledger) Record(ctx context.Context, rc Receipt) (Receipt, bool, error) {
	if rc.ID == "" {
		rc.ID = l.ids.Generate()
	}

	checksJSON, err := json.Marshal(rc.Checks)
	if err != nil {
		return Receipt{}, false, fmt.Errorf("record receipt: %w", err)
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, receipt_hash, artifact_path, artifact_sha256, canonical_digest, schema_mode, passed, checks, verifier_version, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(receipt_hash) DO NOTHING
	`,
		rc.ID,
		rc.Hash,
		rc.ArtifactPath,
		rc.ArtifactSHA256,
		rc.CanonicalDigest,
		rc.SchemaMode,
		rc.Passed,
		string(checksJSON),
		rc.VerifierVersion,
		rc.CheckedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Receipt{}, false, fmt.Errorf("record receipt: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Receipt{}, false, fmt.Errorf("record receipt: %w", err)
	}
	if n == 1 {
		return rc, true, nil
	}

	existing, err := l.getBy(ctx, "receipt_hash", rc.Hash)
	if err != nil {
		return Receipt{}, false, err
	}
	return existing, false, nil
}

// Get returns the receipt with the given ID.
func (l *Ledger) Get(ctx context.Context, id string) (Receipt, error) {
	return l.getBy(ctx, "id", id)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	ArtifactPath    string
	CanonicalDigest string
	Limit           int
}

// List returns receipts newest first, ties broken by ID.
// Returns an empty slice (not nil) if nothing matches.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE 1 = 1`
	var args []any
	if f.ArtifactPath != "" {
		query += ` AND artifact_path = ?`
		args = append(args, f.ArtifactPath)
	}
	if f.CanonicalDigest != "" {
		query += ` AND canonical_digest = ?`
		args = append(args, f.CanonicalDigest)
	}
	query += ` ORDER BY checked_at DESC, id COLLATE BINARY ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []Receipt{}
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

const receiptColumns = `id, receipt_hash, artifact_path, artifact_sha256, canonical_digest, schema_mode, passed, checks, verifier_version, checked_at`

// getBy fetches a single receipt by a unique column.
func (l *Ledger) getBy(ctx context.Context, column, value string) (Receipt, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE `+column+` = ?`, value)
	rc, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Receipt{}, fmt.Errorf("%w: %s", ErrNotFound, value)
	}
	return rc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(s scanner) (Receipt, error) {
	var (
		rc         Receipt
		checksJSON string
		checkedAt  string
	)
	err := s.Scan(
		&rc.ID,
		&rc.Hash,
		&rc.ArtifactPath,
		&rc.ArtifactSHA256,
		&rc.CanonicalDigest,
		&rc.SchemaMode,
		&rc.Passed,
		&checksJSON,
		&rc.VerifierVersion,
		&checkedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, err
		}
		return Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	if err := json.Unmarshal([]byte(checksJSON), &rc.Checks); err != nil {
		return Receipt{}, fmt.Errorf("decode checks of receipt %s: %w", rc.ID, err)
	}
	rc.CheckedAt, err = time.Parse(timeLayout, checkedAt)
	if err != nil {
		return Receipt{}, fmt.Errorf("decode checked_at of receipt %s: %w", rc.ID, err)
	}
	return rc, nil
}
