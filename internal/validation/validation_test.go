package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidFilePermissions(t *testing.T) {
	tests := []struct {
		mode    os.FileMode
		wantErr bool
	}{
		{0600, false},
		{0640, false},
		{0644, true},
		{0777, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			err := IsValidFilePermissions(tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSecretFile(t *testing.T) {
	dir := t.TempDir()

	private := filepath.Join(dir, "service-account.json")
	require.NoError(t, os.WriteFile(private, []byte("{}"), 0600))
	assert.NoError(t, CheckSecretFile(private))

	shared := filepath.Join(dir, "shared.json")
	require.NoError(t, os.WriteFile(shared, []byte("{}"), 0600))
	require.NoError(t, os.Chmod(shared, 0644))
	assert.ErrorContains(t, CheckSecretFile(shared), "too permissive")

	assert.ErrorContains(t, CheckSecretFile(filepath.Join(dir, "missing.json")), "does not exist")
	assert.ErrorContains(t, CheckSecretFile(dir), "not a regular file")
}
