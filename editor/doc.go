// Package editor binds a rich-text engine element to a Bubble Tea component.
//
// A Model mounts one element, loads the initial value exactly once when the
// element initializes, relays engine events to the callbacks of the latest
// Config, and exposes an imperative Handle for host forms. The binding also
// owns an optional upload controller for attachments.
package editor
