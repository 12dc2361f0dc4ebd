// Package fetchstate models the lifecycle of an asynchronous fetch as a pure
// state-transition function.
//
// A Reducer folds Events (Fetch, Success, Fail, Reset, Cache and Abort) into
// a State that records whether a resource is loading, loaded, refreshing or
// failed, together with a keyed cache of earlier results whose expirations
// are merged by an expiration.Merger.
//
// Every Reducer is built from an Actions table that maps the lifecycle
// events onto caller-chosen tags, so several reducers can consume one event
// stream without reacting to each other's events.
package fetchstate
