// Package domain defines the core business entities and interfaces for showlink.
//
// This package contains the domain models (Show, RelatedShowEntry,
// RelatedShowsListItem, CatalogShow) and the repository, transaction and
// catalog interfaces that define the contract for data access.
// All interfaces accept context for cancellation and timeout support.
package domain
