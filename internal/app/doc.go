// Package app is the composition root of the studio client.
//
// Run wires the pieces together in this order:
//
//  1. Load configuration (file, .env, environment, then flag overrides)
//  2. Open the session log and install a JSON slog logger tagged with a
//     session id
//  3. Build the HTTP client, the status poller and the workflow controller
//  4. Preflight: fetch the theme catalog and a first health reading in
//     parallel; neither failure is fatal
//  5. Start the health monitor, which backs off while the service is down
//  6. Run the terminal UI until the user quits or the context is cancelled
//
// The controller reports every session change to the UI through a
// non-blocking notifier, so network callbacks never wait on rendering.
package app
