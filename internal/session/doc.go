// Package session holds the in-memory conversational and presentation state
// of the bot: per-user registration steps, admin poster drafts, pending
// free-form inputs, carousel positions, plus the process-wide active-poster
// cache, admin set and known-user set.
//
// All state is typed. Per-user transitions run under one store-wide RW mutex
// so a single user's updates are strictly ordered; reads hand out snapshots.
// State lives for the process lifetime only — durable facts belong to the
// persistence gateway.
package session
