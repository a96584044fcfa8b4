// Package cell provides typed access to spreadsheet rows and the value
// parsers shared by every validator.
//
// An Accessor resolves header names to column positions once per sheet and
// then serves trimmed, typed lookups by column name. The parsers convert
// the mixed content found in business sheets (serial dates, localized
// numbers, percentages, checkbox-like strings, phone numbers) into
// canonical Go values. They are total: malformed input yields a documented
// fallback instead of an error.
package cell
