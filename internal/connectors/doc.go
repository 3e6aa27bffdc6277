// Package connectors holds the provider clients that implement
// driven.SourceClient. Each subpackage talks to one provider API
// (currently garmin for Garmin Connect).
package connectors
