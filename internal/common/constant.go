// Package common contains shared constants and sentinel errors used across
// PageWatch components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// CollectionRoot is the top-level namespace owning per-user collections.
const CollectionRoot = "users"

// MonitorsCollection is the per-owner collection that holds monitors.
const MonitorsCollection = "monitors"
