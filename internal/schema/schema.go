// Package schema checks feed documents before they are published.
//
// A document is checked in two passes: the embedded CUE schema (feed.cue)
// catches type errors and missing required fields with line numbers, and
// Lint checks cross-references the runtime never enforces (dangling venue
// and speaker ids, duplicate ids, session times with no timeline slot).
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

//go:embed feed.cue
var feedSchema string

// Validation error codes (E100-E199)
const (
	// Document errors (E100-E109)
	ErrInvalidJSON     = "E100" // not valid JSON
	ErrSchemaViolation = "E101" // CUE schema mismatch

	// Lint findings (E110-E119)
	ErrDanglingVenue   = "E110" // session.venue_id names no venue
	ErrDanglingSpeaker = "E111" // session.speaker_ids names no speaker
	ErrDuplicateID     = "E112" // id repeated within a collection
	ErrOrphanTime      = "E113" // session.time matches no timeline slot
	ErrUnusedVenue     = "E114" // venue referenced by no session
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one finding.
type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validator checks documents against the embedded schema.
//
// Thread-safety: a Validator is not safe for concurrent use; create one
// per goroutine.
type Validator struct {
	ctx    *cue.Context
	master cue.Value
	live   cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	s := ctx.CompileString(feedSchema, cue.Filename("feed.cue"))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("compile feed schema: %w", err)
	}
	return &Validator{
		ctx:    ctx,
		master: s.LookupPath(cue.ParsePath("#Master")),
		live:   s.LookupPath(cue.ParsePath("#Live")),
	}, nil
}

// ValidateMaster checks a master document against the schema and, when it
// parses, lints its references. Findings are ordered by line, then field.
func (v *Validator) ValidateMaster(filename string, data []byte) []ValidationError {
	errs := v.check(v.master, filename, data)
	if m, err := model.DecodeMaster(data); err == nil {
		errs = append(errs, Lint(m)...)
	}
	return errs
}

// ValidateLive checks a live document against the schema.
func (v *Validator) ValidateLive(filename string, data []byte) []ValidationError {
	return v.check(v.live, filename, data)
}

func (v *Validator) check(def cue.Value, filename string, data []byte) []ValidationError {
	doc := v.ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return []ValidationError{{
			Field:    "document",
			Message:  firstLine(err.Error()),
			Code:     ErrInvalidJSON,
			Severity: SeverityError,
			Line:     lineIn(err, filename),
		}}
	}

	err := def.Unify(doc).Validate(cue.Concrete(true))
	if err == nil {
		return []ValidationError{}
	}

	var out []ValidationError
	seen := make(map[string]bool)
	for _, e := range errors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "document"
		}
		format, args := e.Msg()
		ve := ValidationError{
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Code:     ErrSchemaViolation,
			Severity: SeverityError,
			Line:     lineIn(e, filename),
		}
		key := ve.Field + "\x00" + ve.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ve)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// lineIn returns the first line err reports inside filename, or 0.
func lineIn(err error, filename string) int {
	for _, pos := range errors.Positions(err) {
		if pos.Filename() == filename && pos.Line() > 0 {
			return pos.Line()
		}
	}
	return 0
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
