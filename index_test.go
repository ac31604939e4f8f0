package mtgrules_test

import (
	"testing"

	"github.com/fwojciec/mtgrules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndex(t *testing.T) {
	t.Parallel()

	t.Run("decodes sections and subsections", func(t *testing.T) {
		t.Parallel()

		idx, err := mtgrules.ParseIndex([]byte(`{"sections": [
			{"id": "1", "title": "Game Concepts", "subsections": [{"id": "100", "title": "General"}]},
			{"id": "2", "title": "Parts of a Card"}
		]}`))
		require.NoError(t, err)
		require.Len(t, idx.Sections, 2)
		assert.Equal(t, "General", idx.Sections[0].Subsections[0].Title)
		assert.NotNil(t, idx.Sections[1].Subsections)
	})

	t.Run("returns ESCHEMA when sections are missing", func(t *testing.T) {
		t.Parallel()

		_, err := mtgrules.ParseIndex([]byte(`{}`))
		require.Error(t, err)
		assert.Equal(t, mtgrules.ESCHEMA, mtgrules.ErrorCode(err))
	})

	t.Run("returns ESCHEMA for section without id", func(t *testing.T) {
		t.Parallel()

		_, err := mtgrules.ParseIndex([]byte(`{"sections": [{"title": "x"}]}`))
		require.Error(t, err)
		assert.Equal(t, mtgrules.ESCHEMA, mtgrules.ErrorCode(err))
	})
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()

	t.Run("lists rules for flat documents", func(t *testing.T) {
		t.Parallel()

		idx := mtgrules.BuildIndex(mustParseRules(t, flatRulesJSON))

		require.Len(t, idx.Sections, 2)
		assert.Equal(t, "1", idx.Sections[0].ID)
		assert.Equal(t, []mtgrules.IndexEntry{
			{ID: "100", Title: "General"},
			{ID: "101", Title: "The Magic Golden Rules"},
		}, idx.Sections[0].Subsections)
	})

	t.Run("lists subsections for nested documents", func(t *testing.T) {
		t.Parallel()

		idx := mtgrules.BuildIndex(mustParseRules(t, nestedRulesJSON))

		require.Len(t, idx.Sections, 1)
		assert.Equal(t, []mtgrules.IndexEntry{
			{ID: "603", Title: "Handling Triggered Abilities"},
			{ID: "604", Title: "Handling Static Abilities"},
		}, idx.Sections[0].Subsections)
	})
}
