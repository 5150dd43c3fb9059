// Package testutil holds helpers shared by the test suites: a goroutine-safe
// log buffer, a temporary file tree writer and an indentation stripper for
// inline HCL snippets.
package testutil
