// Package models defines the organizational-unit domain: the composite Key,
// the OrgUnit record, the keyed Collection, the gorm row for the departments
// table, and the error kinds shared by the store, the snapshot codec and the
// sync service.
package models
