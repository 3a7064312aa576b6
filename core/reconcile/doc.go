// Package reconcile provides a generic system for reconciling a live store
// against a target snapshot of the same keyed entities.
//
// The engine is pure: it compares two maps keyed by entity identity and
// partitions the union of their keys into inserts, updates, deletes and
// unchanged keys. Applying the result is delegated to a Mutator supplied by the
// caller, which owns the transaction.
//
// # Architecture
//
// 1. Engine: Reconcile builds the change set. Keys are matched exactly; there is
// no rename detection, so a key change shows up as one delete plus one insert.
//
// 2. Plan: ReconcileWithPlan wraps the change set with aggregate counts.
//
// 3. Apply: ApplyPlan executes grouped batches in ApplyOrder (delete, update,
// insert) and skips empty groups entirely.
//
// # Usage Example
//
//	spec := &reconcile.Spec[models.Key, models.OrgUnit]{
//	    Name:  "orgunit",
//	    Equal: func(cur, tgt models.OrgUnit) bool { return cur.Description == tgt.Description },
//	    Less:  models.Key.Less,
//	}
//
//	plan := reconcile.ReconcileWithPlan(spec, current, target)
//	executed, err := reconcile.ApplyPlan(ctx, mutator, plan, reconcile.ReconcileOptions{})
package reconcile
