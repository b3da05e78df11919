// Package clients provides adapters for external services.
//
// TraktClient implements domain.CatalogClient on top of the Trakt API and
// owns the optional OAuth token used for authenticated requests.
package clients
