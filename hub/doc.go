// Package hub keeps one store.Store per key for resources that exist many
// times, such as one profile resource per user.
//
// Stores are created on first use by a factory and spread across buckets
// selected by a hash of the key, so that unrelated keys do not contend on
// one lock. Broadcast delivers one event to every store; stores built with
// distinct tag tables only react to the events meant for them.
package hub
