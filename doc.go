// Package ipld implements the IPLD data model for Go values and a selection
// engine that runs selectors directly over encoded blocks.
//
// Representation
//
// Every type that can be stored implements Representation. A
// representation knows its data model kind, its schema declaration and how
// to write itself as codec tokens. Decoding goes through the pointer, which
// implements Decodable. The codec is chosen by multicodec code, so the same
// value can be written as dag-cbor or dag-json.
//
// Values
//
// The package provides the data model scalars (Null, Bool, the sized
// integers, Float32, Float64, String and Bytes), the generic containers
// List and Map, typed links with Link and the dynamically typed Any.
//
// Selection
//
// Select streams a selector over a block graph read from a storage.Context
// without materializing more than a sink asks for. SelectValue runs the same
// selector over a value already in memory, where a SelectRef sink receives
// pointers into the tree and a Patch sink may change it. Links whose target
// changed are marked dirty and must be flushed before the tree is encoded
// again.
package ipld
