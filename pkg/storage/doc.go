// Package storage defines the package repository consulted by the feed and
// the query, paging and ordering rules every backend shares.
//
// Backends live in subpackages: memory for tests and small mirrors, postgres
// for production. Both order default pages by the case-folded package id and
// normalized version, so a [Key] taken from one page resumes the listing at
// the same place on either backend.
package storage
