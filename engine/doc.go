// Package engine hosts a rich-text document behind an event-emitting
// element.
//
// An Element owns listeners and a hidden form input. Connect creates its
// Editor, whose commands mutate the document and emit change,
// selection-change, attachment-add, attachment-remove, attributes-change and
// actions-change as their effects require. file-accept and before-paste are
// cancelable and delivered synchronously before the engine acts.
package engine
