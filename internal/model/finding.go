package model

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"strconv"
)

// ErrorType classifies a Finding. Values are persisted in the task list,
// so the string forms must stay stable.
type ErrorType string

const (
	// ErrMissingColumn means a required header is absent; the sheet is not scanned.
	ErrMissingColumn ErrorType = "missing_column"

	// ErrEmpty means a required value is blank.
	ErrEmpty ErrorType = "empty"

	// ErrInvalidFormat means a value is present but malformed (date, phone, yes/no).
	ErrInvalidFormat ErrorType = "invalid_format"

	// ErrInvalidValue means a value is well-formed but not allowed (status whitelist).
	ErrInvalidValue ErrorType = "invalid_value"

	// ErrClarifyNeeded means an operator left a "уточнить" marker in a cell.
	ErrClarifyNeeded ErrorType = "clarify_needed"

	// ErrMath means the final price does not follow from the full price and discount.
	ErrMath ErrorType = "math_error"

	// ErrPayment means the payment channels do not add up to the final price.
	ErrPayment ErrorType = "payment_error"

	// ErrProcess means a business process step (CRM entry, receipt) was skipped.
	ErrProcess ErrorType = "process_error"

	// ErrFormula means a cell contains a broken spreadsheet formula result.
	ErrFormula ErrorType = "formula_error"
)

// ErrorTypes lists every known ErrorType in a stable order.
func ErrorTypes() []ErrorType {
	return []ErrorType{
		ErrMissingColumn,
		ErrEmpty,
		ErrInvalidFormat,
		ErrInvalidValue,
		ErrClarifyNeeded,
		ErrMath,
		ErrPayment,
		ErrProcess,
		ErrFormula,
	}
}

// String returns the persisted form of the error type.
func (e ErrorType) String() string {
	return string(e)
}

// Label returns a short Russian label for summaries.
func (e ErrorType) Label() string {
	switch e {
	case ErrMissingColumn:
		return "Нет колонки"
	case ErrEmpty:
		return "Не заполнено"
	case ErrInvalidFormat:
		return "Неверный формат"
	case ErrInvalidValue:
		return "Недопустимое значение"
	case ErrClarifyNeeded:
		return "Требует уточнения"
	case ErrMath:
		return "Ошибка расчета"
	case ErrPayment:
		return "Ошибка оплаты"
	case ErrProcess:
		return "Нарушение процесса"
	case ErrFormula:
		return "Ошибка формулы"
	default:
		return string(e)
	}
}

// Finding is a single rule violation attributed to a sheet cell.
// Findings are produced fresh on every run and never stored directly;
// the task list keeps ReportItems keyed by UID instead.
type Finding struct {
	// RowNumber is the 1-based row number in the sheet. Zero means the
	// finding concerns the whole sheet (missing column).
	RowNumber int `json:"row_number"`

	// Column is the header name of the offending column.
	Column string `json:"column"`

	// ErrorType classifies the violation.
	ErrorType ErrorType `json:"error_type"`

	// Description is the operator-facing explanation in Russian.
	Description string `json:"description"`

	// CellLink is a deep link to the cell. Empty for sheet-level findings.
	CellLink string `json:"cell_link"`

	// SheetName is the sheet the row belongs to.
	SheetName string `json:"sheet_name"`

	// Admin is the staff member responsible for the row, or "Уточнить".
	Admin string `json:"admin"`
}

// UID returns the identity of the finding: the lowercase hex MD5 of
// sheet, row, column and error type joined by underscores. Description,
// link and admin do not take part, so rewording a message keeps the task.
func (f Finding) UID() string {
	raw := f.SheetName + "_" + strconv.Itoa(f.RowNumber) + "_" + f.Column + "_" + string(f.ErrorType)
	return MD5Hex(raw)
}

// MD5Hex returns the lowercase hex MD5 digest of s.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // identity hash
	return hex.EncodeToString(sum[:])
}
