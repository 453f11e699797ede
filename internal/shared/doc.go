// Package shared holds code used across packages that does not belong to a single layer.
//
// The testutil subpackage provides spreadsheet fixtures and a log-capturing slog handler for
// tests. It must only depend on the standard library and third-party modules, never on other
// internal packages, so that any package can use it from its tests.
package shared
