// Package normalize is the single decoding boundary between backend payloads
// and the client's canonical types.
//
// Backend records are loosely typed: field names come in upper or lower case,
// hobbies arrive as arrays or CSV strings, dates of birth as ISO strings or
// JSON objects, and images as base64 blobs, wrapper objects or URLs. The
// functions here absorb that drift. None of them fail: a field that cannot be
// interpreted degrades to its empty value and the rest of the record is kept.
//
// Card and notification decoding (DecodeCard, DecodeNotification) is the one
// place where a record can be rejected, because a card without a subject id
// cannot be routed.
package normalize
