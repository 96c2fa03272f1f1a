// Package validation provides struct-tag validation on top of
// go-playground/validator for configuration and request types.
package validation
