package models

import "sort"

// Key is the composite business identity of an organizational unit.
// Two records with equal keys are the same logical entity.
type Key struct {
	// Code is the unit code (depCode).
	Code string `json:"code"`
	// Job is the job title within the unit (depJob).
	Job string `json:"job"`
}

// String renders the key for logs and error messages.
func (k Key) String() string {
	return k.Code + "/" + k.Job
}

// Less orders keys by code, then job.
func (k Key) Less(other Key) bool {
	if k.Code != other.Code {
		return k.Code < other.Code
	}
	return k.Job < other.Job
}

// OrgUnit is one organizational-unit record.
type OrgUnit struct {
	// Key is the immutable composite identity.
	Key Key `json:"key"`
	// Description is the only field subject to update detection.
	Description string `json:"description"`
	// ID is the store-assigned surrogate id. Zero when unassigned (e.g. parsed from a snapshot).
	// It is not part of business equality.
	ID int64 `json:"id,omitempty"`
}

// NewOrgUnit creates an unsaved record.
func NewOrgUnit(code, job, description string) OrgUnit {
	return OrgUnit{Key: Key{Code: code, Job: job}, Description: description}
}

// Collection is a keyed collection of records. Keys are unique by construction
// when records are added through Add.
type Collection map[Key]OrgUnit

// NewCollection builds a collection, failing on the first duplicate key.
func NewCollection(source string, units ...OrgUnit) (Collection, error) {
	c := make(Collection, len(units))
	for _, u := range units {
		if err := c.Add(source, u); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add inserts u, rejecting a key that is already present.
// source names where the records came from and is carried by the error.
func (c Collection) Add(source string, u OrgUnit) error {
	if _, exists := c[u.Key]; exists {
		return &DuplicateKeyError{Key: u.Key, Source: source}
	}
	c[u.Key] = u
	return nil
}

// Sorted returns the records ordered by key.
func (c Collection) Sorted() []OrgUnit {
	units := make([]OrgUnit, 0, len(c))
	for _, u := range c {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].Key.Less(units[j].Key)
	})
	return units
}

// Department represents the 'departments' table.
type Department struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	DepCode     string `gorm:"column:depcode;size:20;not null;uniqueIndex:ux_departments_code_job"`
	DepJob      string `gorm:"column:depjob;size:100;not null;uniqueIndex:ux_departments_code_job"`
	Description string `gorm:"column:description;size:255"`
}

// TableName overrides the table name.
func (Department) TableName() string {
	return "departments"
}

// Columns lists the columns the store reads and writes.
var Columns = []string{"id", "depcode", "depjob", "description"}

// ToOrgUnit converts a row to a record.
func (d Department) ToOrgUnit() OrgUnit {
	return OrgUnit{
		Key:         Key{Code: d.DepCode, Job: d.DepJob},
		Description: d.Description,
		ID:          d.ID,
	}
}

// FromOrgUnit converts a record to a row. The surrogate id is carried over as is.
func FromOrgUnit(u OrgUnit) Department {
	return Department{
		ID:          u.ID,
		DepCode:     u.Key.Code,
		DepJob:      u.Key.Job,
		Description: u.Description,
	}
}
