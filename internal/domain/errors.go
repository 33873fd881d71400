package domain

import "errors"

var (
	// ErrInvalidURL is returned when an audited URL cannot be parsed or is not http(s)
	ErrInvalidURL = errors.New("invalid URL")

	// ErrFetchFailed is returned when a page cannot be fetched or returns a non-2xx status
	ErrFetchFailed = errors.New("fetch failed")

	// ErrParseFailed is returned when fetched HTML cannot be parsed into a document
	ErrParseFailed = errors.New("parse failed")

	// ErrSearchUnavailable is returned when the web search client has no credentials
	ErrSearchUnavailable = errors.New("web search not configured")

	// ErrSearchFailed is returned when a web search request fails
	ErrSearchFailed = errors.New("web search request failed")

	// ErrNoReference is returned when no reference listing could be extracted
	ErrNoReference = errors.New("no reference listing found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
