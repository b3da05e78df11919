// Package storage provides BoltDB-based implementations of domain repositories.
//
// This package contains concrete implementations of ShowRepository,
// RelatedShowsRepository and TransactionRunner using BoltHold for data
// persistence. Repository calls made with a context obtained from
// RunInTransaction join the surrounding bolt transaction. Change
// notifications are sent only after a transaction commits.
package storage
