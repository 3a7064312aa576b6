package reconcile

import (
	"context"
	"fmt"
)

// ReconcileWithPlan reconciles both sides and returns a plan with a summary.
// It does NOT execute anything; use ApplyPlan for that.
func ReconcileWithPlan[K comparable, V any](spec *Spec[K, V], current, target map[K]V) *ReconcilePlan[K, V] {
	changes := Reconcile(spec, current, target)

	return &ReconcilePlan[K, V]{
		Name:    spec.Name,
		Changes: changes,
		Summary: buildSummary(changes, current, target),
	}
}

// ApplyPlan executes the change groups of a plan in ApplyOrder.
// Empty groups are skipped so no statement is issued for them.
// Returns the number of entries applied before the first failure.
func ApplyPlan[K comparable, V any](
	ctx context.Context,
	mutator Mutator[K, V],
	plan *ReconcilePlan[K, V],
	opts ReconcileOptions,
) (executed int, err error) {
	if opts.DryRun {
		return 0, nil
	}

	for _, actionType := range ApplyOrder {
		var (
			entries []Entry[K, V]
			apply   func(context.Context, []Entry[K, V]) error
		)

		switch actionType {
		case ActionDelete:
			entries, apply = plan.Changes.Delete, mutator.DeleteBatch
		case ActionUpdate:
			entries, apply = plan.Changes.Update, mutator.UpdateBatch
		case ActionInsert:
			entries, apply = plan.Changes.Insert, mutator.InsertBatch
		}

		if len(entries) == 0 {
			continue
		}

		if err := apply(ctx, entries); err != nil {
			return executed, fmt.Errorf("failed to apply %s batch of %d: %w", batchName(plan.Name, actionType), len(entries), err)
		}
		executed += len(entries)
	}

	return executed, nil
}

// buildSummary counts the plan's groups against the union of both sides.
func buildSummary[K comparable, V any](changes ChangeSet[K, V], current, target map[K]V) PlanSummary {
	total := len(buildUnion(current, target))

	return PlanSummary{
		TotalItems: total,
		Inserts:    len(changes.Insert),
		Updates:    len(changes.Update),
		Deletes:    len(changes.Delete),
		Unchanged:  total - changes.Len(),
	}
}

func batchName(model string, action ActionType) string {
	if model == "" {
		return string(action)
	}
	return model + " " + string(action)
}
