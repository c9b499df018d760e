package model

import (
	"database/sql"
	"time"
)

// ACF is the per-form access control flag bitset.
type ACF int64

const (
	// HideResults restricts the results view to the form's creator.
	HideResults ACF = 0x1
	// DisallowAnonAnswer rejects submissions without an identity.
	DisallowAnonAnswer ACF = 0x2
)

func (f ACF) Has(flag ACF) bool {
	return f&flag != 0
}

// Form is one created form. Forms are immutable after creation: the schema
// text is stored verbatim as submitted and the answer table derived from it
// is created exactly once.
type Form struct {
	ID        int64
	Schema    string
	CreatedAt time.Time
	CreatorID sql.NullInt64
	Flags     ACF
}

// AcceptsAnswerFrom gates submissions. identified reports whether the
// request carries an identity; userID is only meaningful when it does.
func (f Form) AcceptsAnswerFrom(userID int64, identified bool) bool {
	if !f.Flags.Has(DisallowAnonAnswer) {
		return true
	}
	return identified
}

// ShowsResultsTo gates the results view. When HideResults is set, only the
// form's creator may see them.
func (f Form) ShowsResultsTo(userID int64, identified bool) bool {
	if !f.Flags.Has(HideResults) {
		return true
	}
	return identified && f.CreatorID.Valid && f.CreatorID.Int64 == userID
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}
