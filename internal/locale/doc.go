// Package locale formats the status and prompt messages shown to the operator,
// using golang.org/x/text/message catalogs for English and Spanish.
package locale
