package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/proofcheck/internal/ledger"
	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/schema"
	"github.com/roach88/proofcheck/internal/verify"
)

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	v, err := opts.newVerifier()
	if err != nil {
		return outputSetupError(formatter, err)
	}
	formatter.VerboseLog("Verifying %s (schema: %s)", path, v.Mode())

	report, err := v.VerifyFile(cmd.Context(), path)
	if err != nil {
		return outputLoadError(formatter, path, err)
	}

	if err := outputReport(formatter, report); err != nil {
		return err
	}

	if opts.config.RecordDB != "" {
		if err := recordReports(cmd.Context(), opts.config.RecordDB, formatter, report); err != nil {
			return err
		}
	}

	if !report.Passed {
		return quietExit(ExitFailure)
	}
	return nil
}

// outputSetupError reports a validator that could not be built.
func outputSetupError(f *OutputFormatter, err error) error {
	var unavailable *schema.UnavailableError
	if errors.As(err, &unavailable) {
		_ = f.Error(ErrCodeUnavailable, err.Error(), map[string]string{"mode": string(unavailable.Mode)})
		return quietExit(ExitFailure)
	}
	if f.JSON() {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return quietExit(ExitFailure)
	}
	return err
}

// outputLoadError prints the load-phase failure. No checks ran.
func outputLoadError(f *OutputFormatter, path string, err error) error {
	var (
		le *loader.LoadError
		pe *loader.ParseError
	)
	switch {
	case errors.As(err, &le):
		if f.JSON() {
			_ = f.Error(le.Code, le.Message, map[string]string{"path": path})
		} else if le.NotFound() {
			fmt.Fprintf(f.Writer, "Error: File '%s' not found\n", path)
		} else {
			fmt.Fprintf(f.Writer, "Error: Cannot read '%s'\n", path)
		}
	case errors.As(err, &pe):
		if f.JSON() {
			_ = f.Error(pe.Code, pe.Message, map[string]string{"path": path, "format": string(pe.Format)})
		} else {
			fmt.Fprintf(f.Writer, "Error: Invalid %s in '%s'\n", strings.ToUpper(string(pe.Format)), path)
			f.VerboseLog("%v", pe.Err)
		}
	default:
		if !f.JSON() {
			return WrapExitError(ExitFailure, "load artifact", err)
		}
		_ = f.Error(ErrCodeGeneric, fmt.Sprintf("load artifact: %v", err), map[string]string{"path": path})
	}
	return quietExit(ExitFailure)
}

// outputReport renders the transcript, or the report as a JSON envelope.
func outputReport(f *OutputFormatter, r *verify.Report) error {
	if !f.JSON() {
		return verify.RenderText(f.Writer, r, verify.RenderOptions{Verbose: f.Verbose})
	}

	if r.Passed {
		return f.Success(r)
	}
	if r.SchemaViolation != nil {
		code := schema.ErrCodeSchema
		if len(r.SchemaViolation.Issues) > 0 {
			code = r.SchemaViolation.Issues[0].Code
		}
		return f.Failure(r, code, r.SchemaViolation.Error())
	}
	return f.Failure(r, ErrCodeCheckFailed, failureSummary(r))
}

// failureSummary names the failed checks.
func failureSummary(r *verify.Report) string {
	if r.Error != "" {
		return r.Error
	}
	if r.SchemaViolation != nil {
		return r.SchemaViolation.Error()
	}
	failed := r.Failed()
	if len(failed) == 0 {
		return "no checks ran"
	}
	names := make([]string, len(failed))
	for i, c := range failed {
		names[i] = c.Name
	}
	return fmt.Sprintf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
}

// recordReports stores a receipt per report in the ledger at dbPath.
// Reports without a canonical digest (load failures) are skipped.
func recordReports(ctx context.Context, dbPath string, f *OutputFormatter, reports ...*verify.Report) error {
	l, err := ledger.Open(dbPath)
	if err != nil {
		_ = f.Error(ErrCodeLedger, fmt.Sprintf("cannot open ledger %s", dbPath), err.Error())
		return WrapExitError(ExitCommandError, "open ledger", err)
	}
	defer l.Close()

	logger := logging.New("ledger")
	for _, r := range reports {
		rc, err := ledger.FromReport(r)
		if err != nil {
			logger.Debug("report not recorded", "path", r.Path, "error", err)
			continue
		}
		stored, created, err := l.Record(ctx, rc)
		if err != nil {
			return WrapExitError(ExitCommandError, "record receipt", err)
		}
		if created {
			f.VerboseLog("Recorded receipt %s for %s", stored.ID, r.Path)
		} else {
			f.VerboseLog("Receipt %s already recorded for %s", stored.ID, r.Path)
		}
	}
	return nil
}

// renderTranscript returns the text transcript of r.
func renderTranscript(r *verify.Report, verbose bool) (string, error) {
	var buf bytes.Buffer
	if err := verify.RenderText(&buf, r, verify.RenderOptions{Verbose: verbose}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
