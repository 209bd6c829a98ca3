// Package common contains constants shared by the terminal client and the
// report relay.
package common

const (
	// DefaultAPIBaseURL is the Nekos API v2 root.
	DefaultAPIBaseURL = "https://api.nekosapi.com/v2"

	// DefaultSiteURL is the public web front-end; share links point here.
	DefaultSiteURL = "https://nekos.land"

	// AdminBaseURL is the staff admin site linked from report embeds.
	AdminBaseURL = "https://admin.nekosapi.com"

	// JSONAPIMediaType is sent as Accept and Content-Type to the Nekos API.
	JSONAPIMediaType = "application/vnd.api+json"

	// UserAgent identifies outbound requests.
	UserAgent = "Nekos.Land/1.0 (+https://nekos.land)"
)
