package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netgraph/backend/internal/repository/memory"
)

func testFlagParams(flagID string, subjects ...string) CreateFlagParams {
	return CreateFlagParams{
		FlagID:     flagID,
		SubjectIDs: subjects,
		RuleID:     "rule-7",
		Score:      80,
		Parameter:  "threshold=0.9",
		CreateDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CreateBy:   "analyst",
	}
}

func TestFlagCreateAndFetch(t *testing.T) {
	f := NewFlagUsecase(memory.NewFlagRepository())

	group, err := f.Create(testFlagParams("flag-1", "subj-a", "subj-b"))
	require.NoError(t, err)
	assert.Equal(t, "flag-1", group.FlagID)
	assert.Equal(t, []string{"subj-a", "subj-b"}, group.SubjectIDs)

	// Both subjects see the group, each with all co-flagged subjects.
	for _, subject := range []string{"subj-a", "subj-b"} {
		groups, err := f.GetBySubject(subject)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "flag-1", groups[0].FlagID)
		assert.ElementsMatch(t, []string{"subj-a", "subj-b"}, groups[0].SubjectIDs)
		assert.Equal(t, "rule-7", groups[0].RuleID)
		assert.Equal(t, 80, groups[0].Score)
	}
}

func TestFlagCreateRejectsDuplicateID(t *testing.T) {
	f := NewFlagUsecase(memory.NewFlagRepository())

	_, err := f.Create(testFlagParams("flag-1", "subj-a"))
	require.NoError(t, err)

	_, err = f.Create(testFlagParams("flag-1", "subj-b"))
	assert.ErrorIs(t, err, ErrFlagExists)
}

func TestFlagGetBySubjectEmpty(t *testing.T) {
	f := NewFlagUsecase(memory.NewFlagRepository())

	groups, err := f.GetBySubject("nobody")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFlagSubjectInMultipleGroups(t *testing.T) {
	f := NewFlagUsecase(memory.NewFlagRepository())

	_, err := f.Create(testFlagParams("flag-1", "subj-a", "subj-b"))
	require.NoError(t, err)
	_, err = f.Create(testFlagParams("flag-2", "subj-a"))
	require.NoError(t, err)

	groups, err := f.GetBySubject("subj-a")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "flag-1", groups[0].FlagID)
	assert.Equal(t, "flag-2", groups[1].FlagID)
}

func TestFlagDelete(t *testing.T) {
	f := NewFlagUsecase(memory.NewFlagRepository())

	_, err := f.Create(testFlagParams("flag-1", "subj-a", "subj-b", "subj-c"))
	require.NoError(t, err)

	count, err := f.Delete("flag-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	groups, err := f.GetBySubject("subj-a")
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = f.Delete("flag-1")
	assert.ErrorIs(t, err, ErrFlagNotFound)
}
