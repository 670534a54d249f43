package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Retrieve.Binary != "sf" {
		t.Errorf("expected Binary=sf, got %s", cfg.Retrieve.Binary)
	}
	if cfg.Project.Manifest != "manifest/package.xml" {
		t.Errorf("expected default manifest path, got %s", cfg.Project.Manifest)
	}
	assert.Equal(t, []string{"__c"}, cfg.Matrix.CustomSuffixes)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("SFPERMS_TARGET_ORG", "")
	t.Setenv("SFPERMS_DESIGN_ROOT", "")
	t.Setenv("SFPERMS_SF_BIN", "")

	path := filepath.Join(t.TempDir(), DefaultFileName)

	cfg := DefaultConfig()
	cfg.Retrieve.TargetOrg = "dev-sandbox"
	cfg.Render.MaxColumnWidth = 480

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev-sandbox", loaded.Retrieve.TargetOrg)
	assert.Equal(t, 480, loaded.Render.MaxColumnWidth)
}

func TestConfig_LoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("SFPERMS_TARGET_ORG", "")
	t.Setenv("SFPERMS_DESIGN_ROOT", "")
	t.Setenv("SFPERMS_SF_BIN", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("project: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SFPERMS_TARGET_ORG", "uat")
	t.Setenv("SFPERMS_DESIGN_ROOT", "/tmp/design")
	t.Setenv("SFPERMS_SF_BIN", "/opt/sf/bin/sf")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "uat", cfg.Retrieve.TargetOrg)
	assert.Equal(t, "/tmp/design", cfg.Project.DesignRoot)
	assert.Equal(t, "/opt/sf/bin/sf", cfg.Retrieve.Binary)
}

func TestConfig_Resolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Root = "/work/project"

	assert.Equal(t, filepath.Join("/work/project", "manifest", "package.xml"), cfg.ManifestPath())
	assert.Equal(t, "/abs/design", cfg.Resolve("/abs/design"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieve.Binary = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Render.MaxColumnWidth = 10
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Render.FontSize = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_RetrieveTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Minute, cfg.GetRetrieveTimeout())

	cfg.Retrieve.Timeout = "garbage"
	assert.Equal(t, 15*time.Minute, cfg.GetRetrieveTimeout())

	cfg.Retrieve.Timeout = "90s"
	assert.Equal(t, 90*time.Second, cfg.GetRetrieveTimeout())
}


func TestLoggingCategoriesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n  categories:\n    render: false\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, map[string]bool{"render": false}, cfg.Logging.Categories)
}
