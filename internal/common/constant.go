// Package common contains shared constants and sentinel errors used across
// CSV Browser components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted Authorization scheme.
	BearerScheme = "Bearer"

	// APIPrefix is the mount point of every versioned route.
	APIPrefix = "/api/v1"

	// CSVExtension is the file suffix accepted by the upload endpoint.
	CSVExtension = ".csv"
)
