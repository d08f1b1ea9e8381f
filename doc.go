// Package simpledb is a minimal embedded document store.
//
// # Overview
//
// A [Store] persists one named collection of schema-less [Record] values in
// a single JSON file. The file maps collection names to arrays of objects:
//
//	{
//		"users": [
//			{"id": 1, "name": "Ann"},
//			{"id": 2, "name": "Bo"}
//		]
//	}
//
// [Open] parses the whole file into memory. Reads are served from memory and
// every mutation rewrites the file (tab-indented, via a temp file and a
// rename) before returning. Other collections in the file are preserved as
// is.
//
// # Queries
//
// [Store.Search], [Store.Remove], [Store.RemoveAll] and [Store.IncludeWhere]
// take a [Filter]: either a *Record used as a field-equality template, or a
// [MatchFunc]. All of them scan the collection linearly in insertion order.
//
// # Errors
//
// Invalid arguments return a [*ParamError] before any I/O. Failures tied to
// the file return a [*StorageError]: I/O, not found, or corruption. Use
// [errors.Is] with [ErrInvalidParam], [ErrNotFound] or [ErrCorrupt]. When a
// write fails, the in-memory change is rolled back.
//
// # Concurrency
//
// A Store serializes its own calls. Filters run while the store is locked and
// must not call back into it. Nothing coordinates separate handles or
// processes on the same file: the last writer wins.
package simpledb
