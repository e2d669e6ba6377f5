// Package sqlerr turns database driver errors into structured values.
//
// Repositories convert *pgconn.PgError into *Error so that services can
// branch on a Code and a column (e.g. a unique violation on "tax_id")
// instead of matching on driver message text.
package sqlerr

import (
	"errors"
	"strings"
)

// Code is the driver-independent category of a database error.
type Code string

const (
	Other                Code = "other"
	NotNullViolation     Code = "not_null_violation"
	ForeignKeyViolation  Code = "foreign_key_violation"
	UniqueViolation      Code = "unique_violation"
	CheckViolation       Code = "check_violation"
	ExclusionViolation   Code = "exclusion_violation"
	StringDataTruncation Code = "string_data_right_truncation"
	InvalidTextValue     Code = "invalid_text_representation"
	SerializationFailure Code = "serialization_failure"
	DeadlockDetected     Code = "deadlock_detected"
)

// MapCode maps a PostgreSQL SQLSTATE to a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	case "23P01":
		return ExclusionViolation
	case "22001":
		return StringDataTruncation
	case "22P02":
		return InvalidTextValue
	case "40001":
		return SerializationFailure
	case "40P01":
		return DeadlockDetected
	default:
		return Other
	}
}

// Severity mirrors the PostgreSQL message severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// MapSeverity maps the driver severity string, defaulting to SeverityError.
func MapSeverity(severity string) Severity {
	switch strings.ToUpper(severity) {
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	case "NOTICE":
		return SeverityNotice
	case "DEBUG":
		return SeverityDebug
	case "INFO":
		return SeverityInfo
	case "LOG":
		return SeverityLog
	default:
		return SeverityError
	}
}

// Error is a structured database error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return string(e.Severity) + ": " + e.Message + " (" + string(e.Code) + ", SQLSTATE " + e.DatabaseCode + ")"
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// Column returns the column the error refers to. PostgreSQL leaves
// ColumnName empty for unique violations, so the constraint name is parsed
// as a fallback.
func (e *Error) Column() string {
	if e.ColumnName != "" {
		return e.ColumnName
	}
	if e.Code == UniqueViolation {
		return extractColumnForUniqueViolation(e.ConstraintName)
	}
	return ""
}

// NewUniqueViolation builds the error a store returns when an insert or
// update collides on a unique column.
func NewUniqueViolation(table, column string) *Error {
	return &Error{
		Code:           UniqueViolation,
		Severity:       SeverityError,
		DatabaseCode:   "23505",
		Message:        "duplicate key value violates unique constraint \"" + table + "_" + column + "_key\"",
		TableName:      table,
		ColumnName:     column,
		ConstraintName: table + "_" + column + "_key",
	}
}

// IsUniqueViolation reports whether err carries a unique violation on the
// given column.
func IsUniqueViolation(err error, column string) bool {
	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Code == UniqueViolation && sqlErr.Column() == column
}
