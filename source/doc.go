// Package source produces the payload streams a flowkit coordinator polls.
//
// A Source opens a lazy, possibly unbounded iterator of payloads; the
// coordinator pulls one payload at a time and feeds each into its own run.
// In-memory sources (Slice, Chan, Func) cover tests and embedding; the
// Kafka, Redis, and HTTP sources adapt real transports and implement
// component.Component so an application can manage their lifecycle.
//
// Transport sources decode raw bytes through a Codec. The default JSON
// codec maps documents to Go values; EncryptedCodec unwraps an AEAD
// envelope first.
package source
