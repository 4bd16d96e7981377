// Package qstore implements the persistent queue store: a TCP server
// exposing observing blocks, programs and scheduling weights over
// JSON-RPC 2.0, plus a client whose adaptors give each worker an
// isolated transaction context. Writes are buffered in the adaptor and
// applied all-or-nothing on commit; conflicting concurrent commits are
// detected through per-object revision numbers and must be retried
// against a fresh read.
package qstore
