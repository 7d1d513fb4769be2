// Package document implements the pure rich-text document model behind the
// potluck editor engine.
//
// A document is a list of blocks. Each block holds cells: one grapheme
// cluster, one soft line break, or one attachment. Coordinates are 0-based
// (Block, Offset) in cells. Ranges are half-open: [Start, End).
//
// Documents serialize to and parse from Trix-compatible HTML. A Document is
// not safe for concurrent use; Attachments are.
package document
