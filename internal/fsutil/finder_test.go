package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/mhpishahang/bbn/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"b.hcl":          "",
		"a/settings.hcl": "",
		"a/readme.md":    "",
		"c/d/deep.hcl":   "",
	})

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "settings.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "c", "d", "deep.hcl"),
	}, files)

	_, err = FindFilesByExtension(root, "")
	assert.ErrorIs(t, err, ErrEmptyExtension)

	_, err = FindFilesByExtension(filepath.Join(root, "missing"), ".hcl")
	assert.Error(t, err)
}
