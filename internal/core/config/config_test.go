// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canopyhq/canopy/internal/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilesDoc = `[services.crm]
endpoint = "https://crm.example.com"
environment = "prod"
timeout = "30s"

[services.billing]
endpoint = "https://billing.example.com"
`

func writeProfiles(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestLoadProfiles(t *testing.T) {
	profiles, err := config.LoadProfiles(writeProfiles(t, profilesDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"billing", "crm"}, profiles.ServiceNames())
	assert.Equal(t, "https://crm.example.com", profiles.Services["crm"].Endpoint)
	assert.Equal(t, "30s", profiles.Services["crm"].Timeout)
}

func TestLoadProfilesRejectsMissingEndpoint(t *testing.T) {
	_, err := config.LoadProfiles(writeProfiles(t, "[services.crm]\nenvironment = \"prod\"\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint")
}

func TestLoadProfilesRejectsBadTimeout(t *testing.T) {
	doc := "[services.crm]\nendpoint = \"https://crm.example.com\"\ntimeout = \"soon\"\n"
	_, err := config.LoadProfiles(writeProfiles(t, doc))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	profiles, err := config.LoadProfiles(writeProfiles(t, profilesDoc))
	require.NoError(t, err)

	t.Run("empty selects all", func(t *testing.T) {
		got, err := profiles.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"billing", "crm"}, got)
	})

	t.Run("subset kept as requested", func(t *testing.T) {
		got, err := profiles.Resolve([]string{"crm"})
		require.NoError(t, err)
		assert.Equal(t, []string{"crm"}, got)
	})

	t.Run("unknown service rejected", func(t *testing.T) {
		_, err := profiles.Resolve([]string{"warehouse"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "warehouse")
	})
}

func TestProfilesPathOverride(t *testing.T) {
	t.Setenv("CANOPY_PROFILES", "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", config.ProfilesPath("/work"))

	t.Setenv("CANOPY_PROFILES", "")
	assert.Equal(t, filepath.Join("/work", ".canopy", "profiles.toml"), config.ProfilesPath("/work"))
}
