// Package slackapi provides a small client for the Slack Web API methods used by
// the belay audit: credential checks, integration logs, user listing, and report
// delivery.
//
// Each Client is bound to a single token, carried as an OAuth bearer credential.
// Responses with ok=false surface as APIError values.
package slackapi
