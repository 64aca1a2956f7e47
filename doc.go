// Package persist mirrors a JSON-shaped configuration tree into one key of a
// durable key-value backend.
//
// A Manager owns a single namespace. On construction it reads the record
// stored under that namespace and, when the record is missing, unreadable or
// written by an older version, overwrites it with the caller's defaults. The
// cache is then filled from defaults merged with the persisted data, either
// immediately or on first access. Every write that changes the cache, however
// deeply nested, schedules one debounced persist of the whole record.
//
// Data flow:
//
//	Set/SetPath -> reactive.Object -> scheduleFlush (trailing debounce)
//	            -> Record{version, data} -> backend.Set(namespace)
//
// Persisted record:
//
//	{"version": "1.1.0", "data": {...}, "updated_at": "..."}
//
// One Manager per namespace is the supported usage; managers that share a
// namespace do not coordinate and the last flush wins. Loggers and activity
// hooks run synchronously on the calling goroutine or the flush timer, after
// the manager has released its locks, so they may call back into it.
package persist
