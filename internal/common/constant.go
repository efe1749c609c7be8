// Package common contains shared constants and sentinel errors used across
// Exersio components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token value in the Authorization header.
	BearerPrefix = "Bearer "

	// LocalIDPrefix marks identifiers generated on the client for entities
	// that the server has not seen yet.
	LocalIDPrefix = "local_"
)
