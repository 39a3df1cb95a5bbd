// Package cli provides the interactive PageWatch terminal client.
//
// It wires configuration, the local snapshot cache, the gRPC store client,
// the monitor manager and the text assists into a REPL. A background
// watcher pings the server and flips the prompt between online and
// offline; while offline the last cached list can still be shown.
//
// Key features:
//   - Anonymous sign-in and custom-token login
//   - Add, edit, delete (with y/n confirmation) and check monitors
//   - Live list updates through a cancellable subscription
//   - Selector suggestions and change summaries
//   - Export of all monitors to a download link
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
