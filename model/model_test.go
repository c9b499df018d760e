package model

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptsAnswerFrom(t *testing.T) {
	open := Form{}
	restricted := Form{Flags: DisallowAnonAnswer}

	assert.True(t, open.AcceptsAnswerFrom(0, false), "open form accepts anonymous answers")
	assert.True(t, open.AcceptsAnswerFrom(42, true))

	assert.False(t, restricted.AcceptsAnswerFrom(0, false), "anonymous answer disallowed")
	assert.True(t, restricted.AcceptsAnswerFrom(42, true), "any identified user may answer")
}

func TestShowsResultsTo(t *testing.T) {
	creator := sql.NullInt64{Int64: 42, Valid: true}
	open := Form{CreatorID: creator}
	hidden := Form{CreatorID: creator, Flags: HideResults}

	assert.True(t, open.ShowsResultsTo(0, false))
	assert.True(t, open.ShowsResultsTo(7, true))

	assert.False(t, hidden.ShowsResultsTo(0, false), "anonymous viewer blocked")
	assert.False(t, hidden.ShowsResultsTo(7, true), "non-creator blocked")
	assert.True(t, hidden.ShowsResultsTo(42, true), "creator sees results")
}

func TestHiddenResultsOfAnonymousForm(t *testing.T) {
	// a hidden form without a creator is visible to nobody
	hidden := Form{Flags: HideResults}

	assert.False(t, hidden.ShowsResultsTo(0, false))
	assert.False(t, hidden.ShowsResultsTo(42, true))
}

func TestACFHas(t *testing.T) {
	flags := HideResults | DisallowAnonAnswer

	assert.True(t, flags.Has(HideResults))
	assert.True(t, flags.Has(DisallowAnonAnswer))
	assert.False(t, ACF(0).Has(HideResults))
}
