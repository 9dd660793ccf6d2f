package dmp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("DMP_PASSWORD", "fromenv")

	path := filepath.Join(t.TempDir(), "dmp.yaml")
	err := os.WriteFile(path, []byte(`
username: etl@example.com
password: ${DMP_PASSWORD}
partner_id: 7
rate: 2.5
`), 0600)
	require.NoError(t, err)

	cfg, err := dmp.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "etl@example.com", cfg.Username)
	assert.Equal(t, "fromenv", cfg.Password)
	assert.Equal(t, 7, cfg.PartnerID)
	assert.Equal(t, 2.5, cfg.Rate)
}

func TestLoadConfigFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dmp.yaml")
	err := os.WriteFile(path, []byte("password: s3cret\n"), 0600)
	require.NoError(t, err)

	_, err = dmp.LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := dmp.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
