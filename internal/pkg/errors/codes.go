package errors

import "net/http"

var (
	ErrLocationNotFound = New(
		"LOCATION_NOT_FOUND",
		"Location not found, try another address",
		http.StatusNotFound,
	)

	ErrGeocodingFailed = New(
		"GEOCODING_FAILED",
		"Geocoding service request failed",
		http.StatusBadGateway,
	)

	ErrJobSubmitFailed = New(
		"JOB_SUBMIT_FAILED",
		"Failed to submit search job",
		http.StatusBadGateway,
	)

	ErrSearchSuperseded = New(
		"SEARCH_SUPERSEDED",
		"Search was superseded by a newer query",
		http.StatusConflict,
	)

	ErrNoActiveSearch = New(
		"NO_ACTIVE_SEARCH",
		"No active search in this session",
		http.StatusNotFound,
	)

	ErrInvalidSearchMode = New(
		"INVALID_SEARCH_MODE",
		"Invalid search mode",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
