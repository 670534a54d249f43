package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sfperms/cmd/sfperms/ui"
	"sfperms/internal/config"
	"sfperms/internal/generate"
	"sfperms/internal/metadata"
	"sfperms/internal/retrieve"
)

const fixtureManifest = `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>Account</members>
        <members>Custom__c</members>
        <name>CustomObject</name>
    </types>
    <types>
        <members>Account.Rating</members>
        <name>CustomField</name>
    </types>
    <types>
        <members>Sales_User</members>
        <name>PermissionSet</name>
    </types>
    <version>61.0</version>
</Package>
`

const fixtureSalesUser = `<?xml version="1.0" encoding="UTF-8"?>
<PermissionSet xmlns="http://soap.sforce.com/2006/04/metadata">
    <fieldPermissions>
        <editable>false</editable>
        <field>Account.Rating</field>
        <readable>true</readable>
    </fieldPermissions>
    <label>Sales User</label>
    <objectPermissions>
        <allowEdit>true</allowEdit>
        <allowRead>true</allowRead>
        <object>Account</object>
    </objectPermissions>
</PermissionSet>
`

const accountDescribe = `{"status":0,"result":{"name":"Account","label":"Account","fields":[{"name":"Rating","label":"Account Rating"}]}}`

// fakeExecutor answers sf calls without a real CLI.
type fakeExecutor struct {
	calls   []retrieve.Command
	onCall  func(cmd retrieve.Command) *retrieve.Result
	failing bool
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd retrieve.Command) (*retrieve.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.failing {
		return &retrieve.Result{ExitCode: 1, Stderr: "no default org"}, nil
	}
	if f.onCall != nil {
		return f.onCall(cmd), nil
	}
	return &retrieve.Result{}, nil
}

func setupProject(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()

	ws := t.TempDir()
	cfg := config.DefaultConfig()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, filepath.Dir(cfg.Project.Manifest)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, cfg.Project.Manifest), []byte(fixtureManifest), 0644))

	psDir := filepath.Join(ws, cfg.Project.PermissionSetsDir)
	require.NoError(t, os.MkdirAll(psDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(psDir, "Sales_User.permissionset-meta.xml"), []byte(fixtureSalesUser), 0644))

	projectDir = ws
	configPath = ""
	genEntity, genAll, genSummary, genNoImage, genPrint = "", false, false, false, false
	t.Setenv("SFPERMS_DESIGN_ROOT", "")
	t.Setenv("SFPERMS_SF_BIN", "")
	t.Setenv("SFPERMS_TARGET_ORG", "")
	t.Cleanup(func() { projectDir = "" })
	return ws
}

func useExecutor(t *testing.T, exec retrieve.Executor) {
	t.Helper()
	orig := newExecutor
	newExecutor = func(time.Duration) retrieve.Executor { return exec }
	t.Cleanup(func() { newExecutor = orig })
}

func commandWithOutput() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestInitCmd(t *testing.T) {
	ws := setupProject(t)
	cmd, out := commandWithOutput()

	require.NoError(t, runInit(cmd, nil))
	assert.FileExists(t, filepath.Join(ws, config.DefaultFileName))
	assert.Contains(t, out.String(), "Wrote")

	// idempotent: second run leaves the file alone
	out.Reset()
	require.NoError(t, runInit(cmd, nil))
	assert.Contains(t, out.String(), "already exists")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ws, cfg.Project.Root)
}

func TestManifestCmd(t *testing.T) {
	setupProject(t)
	cmd, out := commandWithOutput()

	manifestMembers = true
	defer func() { manifestMembers = false }()

	require.NoError(t, runManifest(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "CustomObject")
	assert.Contains(t, text, "Account, Custom__c")
	assert.Contains(t, text, "API 61.0")
}

func TestGenerateEntity(t *testing.T) {
	ws := setupProject(t)
	useExecutor(t, &fakeExecutor{failing: true})
	cmd, out := commandWithOutput()

	genEntity = "Sales_User"
	genNoImage = true
	genPrint = true
	require.NoError(t, runGenerate(cmd, []string{"permissionsets"}))

	dir := filepath.Join(ws, "docs", "design", "permissionsets", "Sales_User")
	data, err := os.ReadFile(filepath.Join(dir, "object-permissions.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "| Account | Account | RU |")
	assert.Contains(t, string(data), "| Custom__c | Custom | - |")
	assert.NoFileExists(t, filepath.Join(dir, "object-permissions.png"))

	fields, err := os.ReadFile(filepath.Join(dir, "field-permissions.md"))
	require.NoError(t, err)
	assert.Contains(t, string(fields), "| Account.Rating | Account.Rating | R |")

	assert.Contains(t, out.String(), "object-permissions.md")
	assert.Contains(t, out.String(), "Object Permissions: Sales User")
}

func TestGenerateWithImages(t *testing.T) {
	ws := setupProject(t)
	useExecutor(t, &fakeExecutor{failing: true})
	cmd, _ := commandWithOutput()

	genSummary = true
	require.NoError(t, runGenerate(cmd, []string{"permissionsets"}))

	assert.FileExists(t, filepath.Join(ws, "docs", "design", "permissionsets", "all", "object-permissions.png"))
	assert.FileExists(t, filepath.Join(ws, "docs", "design", "permissionsets", "all", "field-permissions.png"))
}

func TestGenerateRetrievesMissingEntity(t *testing.T) {
	ws := setupProject(t)
	psDir := filepath.Join(ws, config.DefaultConfig().Project.PermissionSetsDir)

	exec := &fakeExecutor{onCall: func(cmd retrieve.Command) *retrieve.Result {
		if strings.Contains(cmd.CommandString(), "project retrieve start") {
			_ = os.WriteFile(filepath.Join(psDir, "Ops_User.permissionset-meta.xml"), []byte(fixtureSalesUser), 0644)
		}
		return &retrieve.Result{}
	}}
	useExecutor(t, exec)
	cmd, out := commandWithOutput()

	genEntity = "Ops_User"
	genNoImage = true
	require.NoError(t, runGenerate(cmd, []string{"permissionsets"}))

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "sf", exec.calls[0].Binary)
	assert.Equal(t, ws, exec.calls[0].WorkingDirectory)
	assert.Contains(t, out.String(), "Retrieved permissionset Ops_User")
}

func TestGenerateRetrievalFailureAborts(t *testing.T) {
	setupProject(t)
	useExecutor(t, &fakeExecutor{failing: true})
	cmd, _ := commandWithOutput()

	genEntity = "Ghost"
	genNoImage = true
	err := runGenerate(cmd, []string{"permissionsets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default org")
}

func TestGenerateSelectionRules(t *testing.T) {
	setupProject(t)
	cmd, _ := commandWithOutput()

	genAll, genSummary = true, true
	assert.Error(t, runGenerate(cmd, []string{"permissionsets"}))

	genAll, genSummary = false, false
	assert.Error(t, runGenerate(cmd, []string{"flows"}))

	origInteractive := isInteractive
	isInteractive = func() bool { return false }
	defer func() { isInteractive = origInteractive }()
	err := runGenerate(cmd, []string{"permissionsets"})
	assert.ErrorContains(t, err, "no selection")
}

func TestGeneratePicker(t *testing.T) {
	ws := setupProject(t)
	cmd, _ := commandWithOutput()
	genNoImage = true

	origInteractive, origPick := isInteractive, pickChoice
	isInteractive = func() bool { return true }
	var offered []string
	pickChoice = func(kind metadata.Kind, entities []string) (ui.Choice, error) {
		offered = entities
		return ui.Choice{Mode: generate.ModeSummary}, nil
	}
	defer func() { isInteractive, pickChoice = origInteractive, origPick }()

	require.NoError(t, runGenerate(cmd, []string{"permissionsets"}))
	assert.Equal(t, []string{"Sales_User"}, offered)
	assert.FileExists(t, filepath.Join(ws, "docs", "design", "permissionsets", "all", "object-permissions.md"))

	pickChoice = func(metadata.Kind, []string) (ui.Choice, error) { return ui.Choice{}, ui.ErrCancelled }
	assert.ErrorIs(t, runGenerate(cmd, []string{"permissionsets"}), ui.ErrCancelled)
}

func TestDescribeCmd(t *testing.T) {
	ws := setupProject(t)
	exec := &fakeExecutor{onCall: func(cmd retrieve.Command) *retrieve.Result {
		return &retrieve.Result{Stdout: accountDescribe}
	}}
	useExecutor(t, exec)
	cmd, out := commandWithOutput()

	require.NoError(t, runDescribe(cmd, []string{"Account"}))
	assert.FileExists(t, filepath.Join(ws, ".sfperms", "describe", "Account.json"))
	assert.Contains(t, out.String(), "Account (Account)")

	// describe labels now flow into the field report
	genEntity = "Sales_User"
	genNoImage = true
	useExecutor(t, &fakeExecutor{failing: true})
	gen, _ := commandWithOutput()
	require.NoError(t, runGenerate(gen, []string{"permissionsets"}))

	fields, err := os.ReadFile(filepath.Join(ws, "docs", "design", "permissionsets", "Sales_User", "field-permissions.md"))
	require.NoError(t, err)
	assert.Contains(t, string(fields), "| Account.Rating | Account Rating | R |")
}

func TestDescribeDefaultsToManifestObjects(t *testing.T) {
	setupProject(t)
	exec := &fakeExecutor{onCall: func(cmd retrieve.Command) *retrieve.Result {
		return &retrieve.Result{Stdout: `{"name":"X","label":"X","fields":[]}`}
	}}
	useExecutor(t, exec)
	cmd, _ := commandWithOutput()

	require.NoError(t, runDescribe(cmd, nil))
	require.Len(t, exec.calls, 2)
	assert.Contains(t, exec.calls[1].CommandString(), "--sobject Custom__c")
}

func TestDescribeFailure(t *testing.T) {
	setupProject(t)
	useExecutor(t, &fakeExecutor{failing: true})
	cmd, _ := commandWithOutput()

	err := runDescribe(cmd, []string{"Account"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe Account")
}

func TestShowCmd(t *testing.T) {
	ws := setupProject(t)
	useExecutor(t, &fakeExecutor{failing: true})
	gen, _ := commandWithOutput()
	genEntity = "Sales_User"
	genNoImage = true
	require.NoError(t, runGenerate(gen, []string{"permissionsets"}))

	showStyle = "notty"
	defer func() { showStyle = "" }()

	cmd, out := commandWithOutput()
	path := filepath.Join(ws, "docs", "design", "permissionsets", "Sales_User", "object-permissions.md")
	require.NoError(t, runShow(cmd, []string{path}))
	assert.Contains(t, out.String(), "Object Permissions: Sales User")

	notReport := filepath.Join(ws, "notes.md")
	require.NoError(t, os.WriteFile(notReport, []byte("# just notes\n"), 0644))
	assert.Error(t, runShow(cmd, []string{notReport}))
	assert.Error(t, runShow(cmd, []string{filepath.Join(ws, "missing.md")}))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	ws := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.DefaultFileName), []byte("render:\n  font_size: 0\n"), 0644))

	_, err := loadConfig()
	assert.ErrorContains(t, err, "font_size")
}
