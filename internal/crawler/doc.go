// Package crawler runs the bounded producer/worker pipeline shared by every source.
//
// A Source enumerates candidate tasks (already filtered by its de-duplication
// policy) and knows how to fetch, extract and persist one of them. The Pool
// owns the only shared state of a crawl: the task queue, the per-task retry
// counters and the worker session handles, all guarded by one mutex. A task
// whose processing fails is re-queued with a longer settle delay until the
// retry cap is reached, then abandoned.
package crawler
