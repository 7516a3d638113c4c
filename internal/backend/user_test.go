package backend

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveUserIDPrefersConfigured(t *testing.T) {
	id, err := ResolveUserID(" user_fixed ", filepath.Join(t.TempDir(), "user_id"))
	require.NoError(t, err)
	require.Equal(t, "user_fixed", id)
}

func TestResolveUserIDPersistsGeneratedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basket", "user_id")

	first, err := ResolveUserID("", path)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^user_[0-9a-f]{9}$`), first)

	second, err := ResolveUserID("", path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestResolveUserIDWithoutPath(t *testing.T) {
	_, err := ResolveUserID("", "")
	require.ErrorIs(t, err, ErrNoUser)
}

func TestSubstitutesFor(t *testing.T) {
	items := []Item{{Name: "Milk"}, {Name: "apples"}, {Name: "Bread"}}
	subs := map[string][]string{
		"milk":  {"almond milk", "oat milk"},
		"bread": {"multigrain bread"},
	}

	require.Equal(t, []Suggestion{
		{Base: "Milk", Substitutes: []string{"almond milk", "oat milk"}},
		{Base: "Bread", Substitutes: []string{"multigrain bread"}},
	}, SubstitutesFor(items, subs))
}
