// Package orgunit keeps the departments table in step with XML snapshots.
//
// A sync run moves through idle, loading, diffing, applying and finally
// committed, or aborted on any failure. All writes of one run share a single
// transaction and are applied as deletes, then updates, then inserts. A failed
// run rolls back, so the table is left exactly as it was before the run.
//
// Export is the read-only sibling: it encodes the whole table and overwrites
// the destination.
//
// # HTTP
//
//	GET  /orgunits                  list records
//	GET  /orgunits/export           download the table as a snapshot
//	POST /orgunits/export?location= write a snapshot to a path or s3://key
//	POST /orgunits/sync?dry_run=    sync from the snapshot in the request body
//
// Invalid snapshots answer 400, an unreachable store 503, anything else 500.
package orgunit
