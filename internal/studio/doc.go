// Package studio provides an HTTP client for the animation studio API.
//
// # Overview
//
// The client covers the four endpoints the workflow depends on:
//
//   - GET  /themes              theme catalog (array or object keyed by id)
//   - GET  /health              backend readiness (healthy, degraded, unhealthy)
//   - POST /generate            submit {theme, duration}, returns animation_id
//   - GET  /status/{id}         progress, current step, result or error
//
// Responses are decoded into transport-neutral types (Theme, Health, Handle,
// Progress, Artifact). Status strings the backend uses for in-progress work
// ("generating", "processing", "started") all fold into StatusPending.
// A status the client does not recognise is reported as StatusError.
//
// # Client Usage
//
//	client, err := studio.NewClient("127.0.0.1:8011")
//	if err != nil {
//		return err
//	}
//	themes, err := client.FetchThemes(ctx)
//	handle, err := client.Generate(ctx, themes[0].ID, 60)
//	progress, err := client.FetchStatus(ctx, handle)
//
// # Errors
//
// Failures are typed so callers can route them with errors.As:
//
//   - *NetworkError: transport failure or HTTP error status on a read endpoint
//   - *DecodeError: body was not the expected JSON
//   - *RequestError: POST /generate failed; Message carries the server detail
//
// IsTransient reports whether a failure is worth retrying (transport errors,
// timeouts, 5xx and undecodable bodies).
//
// # Interfaces
//
// CatalogFetcher, Generator and StatusFetcher split the API by consumer so the
// workflow and poller packages can be tested against small fakes.
package studio
