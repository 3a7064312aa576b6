package reconcile

import "sort"

// Reconcile compares current against target and returns the change set that
// transforms current into target.
// It performs no I/O and never mutates its inputs.
func Reconcile[K comparable, V any](spec *Spec[K, V], current, target map[K]V) ChangeSet[K, V] {
	changes := ChangeSet[K, V]{
		Insert: []Entry[K, V]{},
		Update: []Entry[K, V]{},
		Delete: []Entry[K, V]{},
	}

	for key, targetValue := range target {
		currentValue, exists := current[key]
		if !exists {
			changes.Insert = append(changes.Insert, Entry[K, V]{Key: key, Value: targetValue})
			continue
		}
		if spec.Equal != nil && !spec.Equal(currentValue, targetValue) {
			changes.Update = append(changes.Update, Entry[K, V]{Key: key, Value: targetValue})
		}
	}

	for key, currentValue := range current {
		if _, exists := target[key]; !exists {
			changes.Delete = append(changes.Delete, Entry[K, V]{Key: key, Value: currentValue})
		}
	}

	if spec.Less != nil {
		sortEntries(changes.Insert, spec.Less)
		sortEntries(changes.Update, spec.Less)
		sortEntries(changes.Delete, spec.Less)
	}

	return changes
}

// buildUnion creates the union of keys from both sides.
func buildUnion[K comparable, V any](current, target map[K]V) map[K]struct{} {
	union := make(map[K]struct{}, len(current)+len(target))

	for key := range current {
		union[key] = struct{}{}
	}
	for key := range target {
		union[key] = struct{}{}
	}

	return union
}

func sortEntries[K comparable, V any](entries []Entry[K, V], less func(a, b K) bool) {
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i].Key, entries[j].Key)
	})
}
