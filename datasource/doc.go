/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/doc.go
*/

// Package datasource runs MULTI/EXEC transactions against a redis-compatible
// store.
//
// A transaction body queues commands through typed proxies (Values, Hashes,
// Lists, Sets, SortedSets, Keys) or Execute. Each call returns a Slot that is
// filled once EXEC has run; the TransactionResult holds the same values in
// call order. MULTI is only sent with the first queued command, so a body
// that queues nothing never opens a transaction on the store.
//
// A failed attempt ends in one of three ways:
//
//   - a client failure: a command was rejected locally before it was sent
//   - an early failure: the store rejected a command while queueing it
//   - a late failure: the command failed during EXEC; the transaction still
//     commits and the error sits at that command's position in the result
//
// The first two are returned as *TransactionError. When a watched key was
// written by someone else, the result is Discarded and no error is returned.
//
// ReactiveDataSource is the asynchronous implementation; DataSource wraps it
// and blocks until the pipeline has finished and its connection has been
// returned to the pool.
package datasource
