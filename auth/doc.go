// Package auth obtains and caches YoLink access tokens.
//
// The cloud uses the OAuth2 client-credentials grant: a POST to the
// token endpoint with the UAC client ID and secret yields a bearer
// token with a lifetime (expires_in). Local hubs speak the same grant
// on the hub's own token endpoint with scope "create".
//
// Manager owns the full lifecycle:
//
//   - Token returns the current token without side effects, which is
//     what callers want when building MQTT credentials.
//   - EnsureFresh returns a token valid for at least the configured
//     refresh margin, performing the exchange when needed. Concurrent
//     callers are coalesced into a single exchange; all of them receive
//     the same result.
//   - Invalidate drops a token the server has rejected, so the next
//     EnsureFresh performs a fresh exchange. Passing the rejected token
//     makes invalidation idempotent under concurrency: once one caller
//     replaced the token, later invalidations of the old one are no-ops.
//
// Store is the synchronised token holder underneath Manager, exported
// for callers that persist tokens themselves.
package auth
