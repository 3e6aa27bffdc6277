// Package garmin provides the Garmin Connect source client.
//
// The client talks to the Connect web API with a bearer token obtained
// outside wearsync (the interactive login flow is not handled here).
// Requests are throttled with a token bucket, 429 responses back off using
// Retry-After, and 5xx responses are retried a bounded number of times.
//
// Responses are decoded with json.Number so 64-bit identifiers survive.
package garmin
