// Package store hosts a fetchstate.Reducer.
//
// A Store owns the current State of one resource and applies dispatched
// events one at a time, in the order the store lock is acquired. After
// every change it wakes waiters and calls subscribers.
//
// Configuration options:
//   - WithInitialState: start from a state other than the reducer's initial state
//   - WithEqual / WithCmpOptions: control how a change is detected
//   - WithLogger: where subscriber panics are reported
package store
