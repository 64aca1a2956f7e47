// Package backend defines the durable key-value capability a storage manager
// persists its namespace records into, plus two implementations.
//
// Backend mirrors the shape of browser local storage: string keys, string
// values, synchronous calls, no transactions. A manager only ever touches the
// single key it was configured with (its namespace), so one backend can host
// many namespaces side by side.
//
// Implementations:
//
//	MemoryStore  in-process map, intended for tests and ephemeral sessions
//	FileStore    one file per key on an afero.Fs (OS disk or in-memory)
//
// Callers that need extra behaviour (quotas, encryption, remote sync) wrap a
// Backend; the manager makes no assumptions beyond Get and Set.
package backend
