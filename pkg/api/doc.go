// Package api defines the core protocol types for the package feed.
//
// This package provides the Package entity exposed by the feed, the
// structured error taxonomy shared by every layer, and validation of
// package identifiers and versions as they appear in entity keys.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [Package]: One version of a package, as listed in the feed
//   - [Dependency]: A dependency declared by a package version
//   - [APIError]: Structured error with type, code, param, and message
package api
