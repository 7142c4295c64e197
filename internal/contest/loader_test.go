package contest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContestFixture(t *testing.T, root, id string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	problemDir := filepath.Join(dir, "problem-a")
	require.NoError(t, os.MkdirAll(problemDir, 0o755))

	contestYAML := `id: ` + id + `
title: Practice Round
starttime: "November 25, 2025 at 2:59:46 PM UTC+7"
length_minutes: 90
problems:
  - problem-a
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contest.yaml"), []byte(contestYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("# Practice Round\n"), 0o644))

	problemYAML := `id: ` + id + `-a
title: A plus B
display_id: A
testcases:
  - input: "1 2"
    output: "3"
  - input: "2 3"
    output: "5"
    hidden: true
`
	require.NoError(t, os.WriteFile(filepath.Join(problemDir, "problem.yaml"), []byte(problemYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(problemDir, "index.md"), []byte("Add two numbers.\n"), 0o644))
	return dir
}

func TestLoadAllContestsAndProblems(t *testing.T) {
	root := t.TempDir()
	dir := writeContestFixture(t, root, "c1")

	contests, problems, err := LoadAllContestsAndProblems([]string{dir})
	require.NoError(t, err)
	require.Contains(t, contests, "c1")
	require.Contains(t, problems, "c1-a")

	cnt := contests["c1"]
	assert.Equal(t, "Practice Round", cnt.Title)
	assert.Equal(t, 90, cnt.LengthMinutes)
	assert.Equal(t, []string{"c1-a"}, cnt.ProblemIDs)
	assert.Equal(t, "# Practice Round\n", cnt.Description)

	p := problems["c1-a"]
	assert.Equal(t, "A", p.DisplayID)
	require.Len(t, p.TestCases, 2)
	assert.False(t, p.TestCases[0].Hidden)
	assert.True(t, p.TestCases[1].Hidden)
	assert.Equal(t, "Add two numbers.\n", p.Description)
}

func TestLoadSkipsBrokenContestDirs(t *testing.T) {
	root := t.TempDir()
	good := writeContestFixture(t, root, "c1")

	// Missing contest.yaml entirely.
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	// Zero-length contests are rejected rather than rendered as ended.
	zero := filepath.Join(root, "zero")
	require.NoError(t, os.MkdirAll(zero, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(zero, "contest.yaml"),
		[]byte("id: zero\ntitle: Zero\nstarttime: whenever\n"), 0o644))

	contests, _, err := LoadAllContestsAndProblems([]string{good, empty, zero})
	require.NoError(t, err)
	assert.Len(t, contests, 1)
	assert.Contains(t, contests, "c1")
}

func TestAppStateReplaceRebuildsProblemIndex(t *testing.T) {
	state := NewAppState()

	c := &Contest{ID: "c1", ProblemIDs: []string{"p1", "p2"}}
	state.Replace(
		map[string]*Contest{"c1": c},
		map[string]*Problem{"p1": {ID: "p1"}, "p2": {ID: "p2"}},
	)

	state.RLock()
	defer state.RUnlock()
	assert.Same(t, c, state.ProblemToContestMap["p1"])
	assert.Same(t, c, state.ProblemToContestMap["p2"])
	assert.Nil(t, state.ProblemToContestMap["p9"])
}
