package orgunit

import (
	"context"

	"orgunit-sync/core/reconcile"
	"orgunit-sync/feature/orgunit/models"
	"orgunit-sync/feature/orgunit/store"
)

type entries = []reconcile.Entry[models.Key, models.OrgUnit]

// txMutator applies change groups through the repository inside one transaction.
type txMutator struct {
	repo Repository
	tx   store.Tx
}

func (m *txMutator) DeleteBatch(ctx context.Context, batch entries) error {
	return m.repo.DeleteAll(ctx, m.tx, values(batch))
}

func (m *txMutator) UpdateBatch(ctx context.Context, batch entries) error {
	return m.repo.UpdateAll(ctx, m.tx, values(batch))
}

func (m *txMutator) InsertBatch(ctx context.Context, batch entries) error {
	return m.repo.InsertAll(ctx, m.tx, values(batch))
}

func values(batch entries) []models.OrgUnit {
	units := make([]models.OrgUnit, 0, len(batch))
	for _, e := range batch {
		units = append(units, e.Value)
	}
	return units
}
