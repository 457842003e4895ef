// Package client implements the authenticated request pipeline against
// the YoLink API gateway.
//
// A Call sends one BSDP envelope and returns the decoded BRDP reply.
// The pipeline layers, from the inside out:
//
//  1. A single HTTP exchange: ensure a fresh access token, POST the
//     envelope, classify the outcome.
//  2. Retry with exponential backoff for transient failures (transport
//     errors and 5xx responses), up to the configured attempt budget.
//  3. One forced token refresh when the gateway answers 401: the
//     rejected token is invalidated and the whole exchange runs once
//     more with a new token. A second 401 surfaces ErrUnauthorized.
//
// A 200 response whose envelope code is not success is an API-level
// rejection, returned as *model.DeviceError and never retried here.
// Other 4xx responses and malformed bodies are terminal as well.
package client
