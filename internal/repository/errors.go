// Package repository holds the MySQL data access layer.  Sentinel errors
// let handlers map failures to HTTP status codes with errors.Is.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound means the row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is neither landlord nor tenant of the
	// resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means the row exists but its state does not allow the
	// operation, for example adding images to an active contract.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition means the requested status is not reachable from
	// the current one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvoiceExists means an invoice for the same contract and billing
	// period is already stored.
	ErrInvoiceExists = errors.New("invoice already exists for period")

	// ErrEmailExists is returned by UserRepo.Create for a taken email.
	ErrEmailExists = errors.New("email already exists")
)

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
