// Package client is the remote store adapter of the PageWatch terminal
// client.
//
// GRPCClient talks to the PageWatch server over gRPC with the JSON codec.
// It injects the access token into every call, refreshes an expired token
// once and retries, and maps gRPC status codes onto the sentinel errors of
// internal/common so callers can match them with errors.Is.
//
// Subscribe returns a SnapshotStream that yields full collection
// snapshots until the context is cancelled or the stream breaks.
package client
