package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines export error kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
)

// ExportError wraps any failure that is not a validation or lookup error.
type ExportError struct {
	Kind  ErrorKind
	Msg   string
	Table string
	Err   error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// ValidationError reports requested columns that the data cannot satisfy.
type ValidationError struct {
	Columns []string
	Reason  string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "columns not found in data"
	}
	if len(e.Columns) == 0 {
		return reason
	}
	quoted := make([]string, len(e.Columns))
	for i, name := range e.Columns {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return reason + ": " + strings.Join(quoted, ", ")
}

// TableNotFoundError reports a table missing from the schema catalog.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Table)
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
		if exportErr.Table != "" && !strings.Contains(msg, exportErr.Table) {
			msg = fmt.Sprintf("%s (table %q)", msg, exportErr.Table)
		}
	}

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its export error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var notFound *TableNotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Kind != "" {
		return exportErr.Kind
	}

	return KindInternal
}

// wrapError translates err at a public boundary. Validation and lookup errors
// pass through; everything else becomes an *ExportError tagged with table.
func wrapError(err error, msg, table string) error {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	var notFound *TableNotFoundError
	if errors.As(err, &notFound) {
		return notFound
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		if exportErr.Table == "" && table != "" {
			cp := *exportErr
			cp.Table = table
			return &cp
		}
		return exportErr
	}

	if table != "" {
		msg = fmt.Sprintf("%s for table %q", msg, table)
	}
	return &ExportError{Kind: KindFromError(err), Msg: msg, Table: table, Err: err}
}
