package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OkinawaYT/Michishirube2026/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	File   string                   `json:"file"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Live bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a feed document against the feed schema",
		Long: `Check a master (default) or live (--live) feed document against the
feed schema. Master documents are also linted for dangling venue and
speaker references, duplicate ids, session times with no timeline slot and
unused venues. Warnings are reported but do not fail validation.

Exit codes:
  0 - Valid (possibly with warnings)
  1 - Schema or lint errors
  2 - Command error (file not readable)

Examples:
  michishirube validate data/master.json
  michishirube validate --live live.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Live, "live", false, "validate a live feed document")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error("E_READ", fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	v, err := schema.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	kind := "master"
	var findings []schema.ValidationError
	if opts.Live {
		kind = "live"
		findings = v.ValidateLive(path, data)
	} else {
		findings = v.ValidateMaster(path, data)
	}
	formatter.VerboseLog("Validated %s as %s document: %d finding(s)", path, kind, len(findings))

	result := ValidationResult{File: path, Valid: !schema.HasErrors(findings), Errors: findings}
	if formatter.JSON() {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		return formatter.Success(result)
	}

	first := firstError(result.Errors)
	if err := formatter.Failure(first.Code, first.Message, result); err != nil {
		return err
	}
	return validationFailed(result.Errors)
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	st := newStyles(w)

	for _, e := range result.Errors {
		mark := st.Fail.Render("✗")
		if e.Severity == schema.SeverityWarning {
			mark = st.Warn.Render("!")
		}
		fmt.Fprintf(w, "%s %s\n", mark, e.Error())
	}

	if !result.Valid {
		fmt.Fprintf(w, "%s %s is invalid\n", st.Fail.Render("✗"), result.File)
		return validationFailed(result.Errors)
	}

	warnings := len(result.Errors)
	if warnings > 0 {
		fmt.Fprintf(w, "%s %s is valid (%d warning(s))\n", st.OK.Render("✓"), result.File, warnings)
		return nil
	}
	fmt.Fprintf(w, "%s %s is valid\n", st.OK.Render("✓"), result.File)
	return nil
}

func firstError(errs []schema.ValidationError) schema.ValidationError {
	for _, e := range errs {
		if e.Severity == schema.SeverityError {
			return e
		}
	}
	return schema.ValidationError{}
}

func validationFailed(errs []schema.ValidationError) error {
	n := 0
	for _, e := range errs {
		if e.Severity == schema.SeverityError {
			n++
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", n))
}
