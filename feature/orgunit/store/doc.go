// Package store is the record store for organizational units.
//
// It maps the departments table through GORM and exposes whole-table reads
// plus grouped writes. Every write method issues at most one statement and
// issues none for an empty batch:
//
//	tx, err := st.Begin(ctx)
//	current, err := st.FetchAll(ctx, tx)
//	err = st.DeleteAll(ctx, tx, gone)
//	err = st.UpdateAll(ctx, tx, changed)
//	err = st.InsertAll(ctx, tx, added)
//	err = tx.Commit()
//
// Updates and deletes address rows by their (depcode, depjob) key rather than
// by surrogate id, so records decoded from a snapshot can be applied directly.
package store
