// Package cli provides the interactive Aligned command-line client.
//
// It wires configuration, the local cache, the HTTP API client, the
// application services and an interactive REPL that supports online and
// offline operation. Typical flow: prompt for credentials, start the
// background connectivity watcher, refresh the triage queues periodically and
// execute user commands.
//
// Key features:
//   - Register / Login / Logout (online with offline fallback)
//   - Browse the recommendation, match and awaiting queues
//   - Align with or skip a candidate
//   - Notifications, the Destiny assistant and peer chat
//   - Own profile and photo uploads
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
