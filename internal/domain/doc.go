// Package domain models childcare facility and temporary-care availability
// data published by the Hamamatsu city open-data portal.
//
// # Data Sources
//
// Facilities come from eight CSV exports, one per facility category
// (certified centers, private and municipal licensed nursery schools, small
// childcare businesses, on-site and company-led childcare, and two kinds of
// unlicensed facilities). Availability comes from one CSV listing, per
// facility and date, the slot status for each age bucket. The category of a
// facility is never read from its row; it is the category the caller
// attached to the table ([SourcedTable]).
//
// # Identifier Conventions
//
// Facility numbers are formatted inconsistently between datasets:
//
//	"007"   zero padded           →  "7"
//	"７"    full-width digits      →  "7"
//	" 12 "  surrounding blanks     →  "12"
//	"000"   all zeros              →  "000" (kept, see [NormalizeIdentifier])
//
// The normalized value is the join key; the raw text is kept for display.
//
// # Availability Conventions
//
// Status columns share the "一時保育(" prefix and carry the age in
// parentheses, e.g. "一時保育(3歳児)". Columns are ordered by age, then by
// their position in the file; that order is the bucket index used by every
// lookup. Headers without a parseable age sort last.
//
// Dates are "YYYY-MM-DD" strings and are ordered with plain string
// comparison, which is only correct for that zero-padded format.
//
// Status values are free text. Tokens decide the marker style:
//
//	full:      "×" or "満"
//	available: "午前", "午後", "○", "〇" or "◯"
//
// A value containing both kinds is full.
//
// # Lenient Rows
//
// Rows with an empty identifier or non-numeric coordinates are skipped
// without error. Only a missing required column fails a table
// ([SchemaError]).
package domain
