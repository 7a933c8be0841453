// Package ledger defines the discrete error kinds every command of the
// expense ledger can report. Callers branch on the kind, never on error
// message text.
package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected command.
type Kind string

const (
	// KindValidation marks malformed input: non-positive amount, empty or
	// duplicated participant set. Rejected before any persistence attempt.
	KindValidation Kind = "VALIDATION"

	// KindForbidden marks an actor lacking the required role, or an elapsed
	// permission window.
	KindForbidden Kind = "FORBIDDEN"

	// KindNotEditable marks an edit against a voided or locked expense.
	KindNotEditable Kind = "NOT_EDITABLE"

	// KindNotVoidable marks a void against a voided or locked expense.
	KindNotVoidable Kind = "NOT_VOIDABLE"

	// KindIneligibleExpense marks a settlement candidate that is not ACTIVE
	// and unlocked; the whole settlement creation is rejected.
	KindIneligibleExpense Kind = "INELIGIBLE_EXPENSE"

	// KindAlreadyPaid marks a MarkPaid call against a settlement that is
	// already PAID.
	KindAlreadyPaid Kind = "ALREADY_PAID"

	// KindConflict marks a lost concurrent-write race; the caller may retry.
	KindConflict Kind = "CONFLICT"

	// KindNotFound marks a reference to an entity that does not exist.
	KindNotFound Kind = "NOT_FOUND"
)

// Error carries a kind plus a human-readable detail.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is lets errors.Is match two ledger errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind from err, or "" if err is not a ledger error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind, unwrapping as needed.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// Validationf builds a KindValidation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a KindForbidden error.
func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Detail: fmt.Sprintf(format, args...)}
}

// NotEditablef builds a KindNotEditable error.
func NotEditablef(format string, args ...any) error {
	return &Error{Kind: KindNotEditable, Detail: fmt.Sprintf(format, args...)}
}

// NotVoidablef builds a KindNotVoidable error.
func NotVoidablef(format string, args ...any) error {
	return &Error{Kind: KindNotVoidable, Detail: fmt.Sprintf(format, args...)}
}

// Ineligiblef builds a KindIneligibleExpense error.
func Ineligiblef(format string, args ...any) error {
	return &Error{Kind: KindIneligibleExpense, Detail: fmt.Sprintf(format, args...)}
}

// AlreadyPaidf builds a KindAlreadyPaid error.
func AlreadyPaidf(format string, args ...any) error {
	return &Error{Kind: KindAlreadyPaid, Detail: fmt.Sprintf(format, args...)}
}

// Conflictf builds a KindConflict error.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}
