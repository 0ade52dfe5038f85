// Package numerals converts between Roman numeral strings and integers in the
// range 1-3999 using standard subtractive notation.
//
// Responsibilities:
// - Parse a numeral tier by tier, accepting only canonical spellings.
// - Format an integer into its canonical numeral.
//
// Non-responsibilities:
// - Transport, logging, metrics, or process lifecycle.
// - Archaic or non-subtractive spellings such as "IIII".
//
// Both operations are pure and safe for concurrent use.
package numerals
