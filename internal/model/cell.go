package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CellKind identifies which variant a CellValue holds.
type CellKind int

const (
	// KindEmpty is a cell with no content.
	KindEmpty CellKind = iota

	// KindText is a cell holding a string.
	KindText

	// KindNumber is a cell holding a numeric value. Serial dates arrive
	// with this kind when sheets are read unformatted.
	KindNumber

	// KindBool is a cell holding a native boolean (spreadsheet checkbox).
	KindBool
)

// String returns a human-readable name of the kind.
func (k CellKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// CellValue is a tagged union over the value types a spreadsheet cell can
// carry. The zero value is an empty cell.
//
// CellValue is comparable, so it can be used as a map key. Two cells are
// equal only when both the kind and the payload match: Number(1) and
// Text("1") are different values.
type CellValue struct {
	kind CellKind
	text string
	num  float64
	flag bool
}

// Row is one spreadsheet row as read from a data source.
type Row []CellValue

// Empty returns an empty cell.
func Empty() CellValue {
	return CellValue{}
}

// Text returns a text cell.
func Text(s string) CellValue {
	return CellValue{kind: KindText, text: s}
}

// Number returns a numeric cell.
func Number(f float64) CellValue {
	return CellValue{kind: KindNumber, num: f}
}

// Bool returns a boolean cell.
func Bool(b bool) CellValue {
	return CellValue{kind: KindBool, flag: b}
}

// FromAny converts a dynamically typed value, as decoded from the Sheets
// API JSON payload, into a CellValue. Unknown types are rendered as text.
func FromAny(v any) CellValue {
	switch x := v.(type) {
	case nil:
		return Empty()
	case CellValue:
		return x
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return Text(x.String())
	default:
		return Text(toString(x))
	}
}

// Kind reports which variant the cell holds.
func (c CellValue) Kind() CellKind {
	return c.kind
}

// Str returns the text payload. It is empty for non-text cells.
func (c CellValue) Str() string {
	return c.text
}

// Num returns the numeric payload. It is zero for non-number cells.
func (c CellValue) Num() float64 {
	return c.num
}

// Boolean returns the boolean payload. It is false for non-bool cells.
func (c CellValue) Boolean() bool {
	return c.flag
}

// IsEmpty reports whether the cell has no content. An empty string counts
// as empty; a numeric zero and a false checkbox do not.
func (c CellValue) IsEmpty() bool {
	return c.kind == KindEmpty || (c.kind == KindText && c.text == "")
}

// IsZero reports whether the cell is "falsy": empty, a zero number or a
// false checkbox.
func (c CellValue) IsZero() bool {
	switch c.kind {
	case KindNumber:
		return c.num == 0
	case KindBool:
		return !c.flag
	default:
		return c.IsEmpty()
	}
}

// Trimmed returns the cell with surrounding whitespace removed from its
// text payload. Non-text cells are returned unchanged.
func (c CellValue) Trimmed() CellValue {
	if c.kind != KindText {
		return c
	}
	return Text(strings.TrimSpace(c.text))
}

// String renders the cell the way it reads in a spreadsheet: numbers
// without trailing zeros, booleans as TRUE/FALSE.
func (c CellValue) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindBool:
		if c.flag {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// MarshalJSON encodes the cell as its natural JSON value.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		return json.Marshal(c.num)
	case KindBool:
		return json.Marshal(c.flag)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into the matching cell variant.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = FromAny(v)
	return nil
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
