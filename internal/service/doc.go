// Package service contains business logic for showlink operations.
//
// Services orchestrate between domain repositories and the catalog client:
// - ShowService: creates placeholder shows and refreshes show details
// - RelatedShowsService: refreshes and observes the related shows of a show
//
// Remote calls go through the retry policy. All services accept context for
// cancellation support.
package service
