package migration

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCaseIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ids.csv", []byte("1111\r\n1112\n\n  1113 \n1111\n1112\n"), 0o644))

	list, err := ReadCaseIDs(fs, "ids.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"1111", "1112", "1113"}, list.IDs)
	assert.Equal(t, 2, list.Duplicates)
}

func TestReadCaseIDs_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ids.csv", nil, 0o644))

	list, err := ReadCaseIDs(fs, "ids.csv")
	require.NoError(t, err)
	assert.Empty(t, list.IDs)
	assert.Zero(t, list.Duplicates)
}

func TestReadCaseIDs_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := ReadCaseIDs(fs, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = ReadCaseIDs(fs, "missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open case id file")
}
