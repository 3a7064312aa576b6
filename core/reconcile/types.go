package reconcile

// Entry is a single keyed value carried by a change set.
type Entry[K comparable, V any] struct {
	// Key is the entity identity.
	Key K `json:"key"`

	// Value is the record. For updates it is always the target side.
	Value V `json:"value"`
}

// ChangeSet is the partition produced by a reconciliation.
// The three slices are pairwise disjoint by key. Keys present on both sides
// with equal values are not emitted.
type ChangeSet[K comparable, V any] struct {
	// Insert holds target entries whose key is absent from current.
	Insert []Entry[K, V] `json:"insert"`

	// Update holds target entries whose key exists in current with a different value.
	Update []Entry[K, V] `json:"update"`

	// Delete holds current entries whose key is absent from target.
	Delete []Entry[K, V] `json:"delete"`
}

// Len returns the total number of changes.
func (c ChangeSet[K, V]) Len() int {
	return len(c.Insert) + len(c.Update) + len(c.Delete)
}

// IsEmpty reports whether the change set requires no mutation.
func (c ChangeSet[K, V]) IsEmpty() bool {
	return c.Len() == 0
}

// Spec defines how two collections of a model are compared.
type Spec[K comparable, V any] struct {
	// Name identifies the model in plan apply errors (e.g. "orgunit").
	Name string

	// Equal reports whether the current and target values are the same.
	// A nil Equal treats every key present on both sides as unchanged.
	Equal func(current, target V) bool

	// Less orders keys inside each change slice.
	// If nil, change slices are left in map iteration order.
	Less func(a, b K) bool
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDelete removes an entity from the store.
	ActionDelete ActionType = "delete"
	// ActionUpdate rewrites the mutable fields of an existing entity.
	ActionUpdate ActionType = "update"
	// ActionInsert creates a new entity in the store.
	ActionInsert ActionType = "insert"
)

// ApplyOrder is the order in which change groups are executed.
// Deletes run first so later unique-key checks see the reduced row set.
var ApplyOrder = []ActionType{ActionDelete, ActionUpdate, ActionInsert}

// ReconcilePlan contains the computed change set and its summary.
type ReconcilePlan[K comparable, V any] struct {
	// Name is copied from Spec.Name and prefixes apply errors.
	Name string `json:"name,omitempty"`

	// Changes contains the planned mutations.
	Changes ChangeSet[K, V] `json:"changes"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
type PlanSummary struct {
	// TotalItems is the number of unique keys across both sides.
	TotalItems int `json:"total_items"`

	// Inserts counts keys only present in target.
	Inserts int `json:"inserts"`

	// Updates counts keys present on both sides with differing values.
	Updates int `json:"updates"`

	// Deletes counts keys only present in current.
	Deletes int `json:"deletes"`

	// Unchanged counts keys present on both sides with equal values.
	Unchanged int `json:"unchanged"`
}

// ReconcileOptions controls apply behavior.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool
}
