package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfperms/internal/manifest"
)

const salesUserXML = `<?xml version="1.0" encoding="UTF-8"?>
<PermissionSet xmlns="http://soap.sforce.com/2006/04/metadata">
    <fieldPermissions>
        <editable>true</editable>
        <field>Account.Rating</field>
        <readable>true</readable>
    </fieldPermissions>
    <label>Sales User</label>
    <objectPermissions>
        <allowCreate>false</allowCreate>
        <allowDelete>false</allowDelete>
        <allowEdit>true</allowEdit>
        <allowRead>true</allowRead>
        <modifyAllRecords>false</modifyAllRecords>
        <object>Account</object>
        <viewAllRecords>false</viewAllRecords>
    </objectPermissions>
</PermissionSet>
`

const adminProfileXML = `<?xml version="1.0" encoding="UTF-8"?>
<Profile xmlns="http://soap.sforce.com/2006/04/metadata">
    <custom>false</custom>
    <objectPermissions>
        <allowCreate>true</allowCreate>
        <allowDelete>true</allowDelete>
        <allowEdit>true</allowEdit>
        <allowRead>true</allowRead>
        <modifyAllRecords>true</modifyAllRecords>
        <object>Account</object>
        <viewAllFields>true</viewAllFields>
        <viewAllRecords>true</viewAllRecords>
    </objectPermissions>
    <userLicense>Salesforce</userLicense>
</Profile>
`

// fakeRetriever records the manifest it was given and optionally writes a
// metadata file to simulate a successful retrieve.
type fakeRetriever struct {
	calls    int
	manifest *manifest.MemberSet
	writeTo  string
	content  string
	err      error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, manifestPath string) error {
	f.calls++
	set, err := manifest.ParseFile(manifestPath)
	if err != nil {
		return err
	}
	f.manifest = set
	if f.err != nil {
		return f.err
	}
	if f.writeTo != "" {
		if err := os.MkdirAll(filepath.Dir(f.writeTo), 0755); err != nil {
			return err
		}
		return os.WriteFile(f.writeTo, []byte(f.content), 0644)
	}
	return nil
}

func newTestLoader(t *testing.T, r Retriever) (*Loader, string, string) {
	t.Helper()
	root := t.TempDir()
	psDir := filepath.Join(root, "permissionsets")
	profDir := filepath.Join(root, "profiles")
	require.NoError(t, os.MkdirAll(psDir, 0755))
	require.NoError(t, os.MkdirAll(profDir, 0755))
	return NewLoader(psDir, profDir, r, "61.0"), psDir, profDir
}

func TestParsePermissionSet(t *testing.T) {
	rec, err := Parse(strings.NewReader(salesUserXML), PermissionSet, "Sales_User")
	require.NoError(t, err)

	assert.Equal(t, "Sales User", rec.Label)
	assert.Equal(t, "Sales_User", rec.Name)
	require.Len(t, rec.ObjectPermissions, 1)
	assert.Equal(t, "RU", rec.ObjectCode("Account"))
	assert.Equal(t, "RU", rec.FieldCode("Account.Rating"))
}

func TestParseProfile(t *testing.T) {
	rec, err := Parse(strings.NewReader(adminProfileXML), Profile, "Admin")
	require.NoError(t, err)

	assert.Empty(t, rec.Label)
	assert.Equal(t, "Admin", rec.DisplayName())
	assert.Equal(t, "CRUDVaUaFa", rec.ObjectCode("Account"))
	assert.Empty(t, rec.FieldPermissions)
}

func TestParseMalformedMetadata(t *testing.T) {
	_, err := Parse(strings.NewReader("<PermissionSet><label>x</PermissionSet>"), PermissionSet, "Broken")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
}

func TestLoadLocalPresent(t *testing.T) {
	r := &fakeRetriever{}
	loader, psDir, _ := newTestLoader(t, r)
	require.NoError(t, os.WriteFile(filepath.Join(psDir, "Sales_User.permissionset-meta.xml"), []byte(salesUserXML), 0644))

	rec, outcome, err := loader.Load(context.Background(), PermissionSet, "Sales_User")
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocal, outcome)
	assert.Equal(t, "Sales User", rec.Label)
	assert.Zero(t, r.calls)
}

func TestReadLocalMissingIsNotFound(t *testing.T) {
	loader, _, _ := newTestLoader(t, nil)

	_, err := loader.ReadLocal(Profile, "Ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadFetchesMissingThenReads(t *testing.T) {
	r := &fakeRetriever{content: adminProfileXML}
	loader, _, profDir := newTestLoader(t, r)
	r.writeTo = filepath.Join(profDir, "Admin.profile-meta.xml")

	rec, outcome, err := loader.Load(context.Background(), Profile, "Admin")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, outcome)
	assert.Equal(t, "CRUDVaUaFa", rec.ObjectCode("Account"))

	require.Equal(t, 1, r.calls)
	assert.Equal(t, []string{"Profile"}, r.manifest.Types())
	assert.Equal(t, []string{"Admin"}, r.manifest.Members("Profile"))
	assert.Equal(t, "61.0", r.manifest.Version())
}

func TestLoadRetrievalFailureAborts(t *testing.T) {
	boom := errors.New("sf: no default org")
	r := &fakeRetriever{err: boom}
	loader, _, _ := newTestLoader(t, r)

	_, _, err := loader.Load(context.Background(), PermissionSet, "Sales_User")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []string{"Sales_User"}, r.manifest.Members("PermissionSet"))
}

func TestLoadStillMissingAfterRetrievalIsFatal(t *testing.T) {
	r := &fakeRetriever{}
	loader, _, _ := newTestLoader(t, r)

	_, _, err := loader.Load(context.Background(), PermissionSet, "Sales_User")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still missing")
	assert.Equal(t, 1, r.calls, "retrieval must happen exactly once")
}

func TestLoadParseErrorIsNotRetried(t *testing.T) {
	r := &fakeRetriever{}
	loader, psDir, _ := newTestLoader(t, r)
	path := filepath.Join(psDir, "Broken.permissionset-meta.xml")
	require.NoError(t, os.WriteFile(path, []byte("<PermissionSet>"), 0644))

	_, _, err := loader.Load(context.Background(), PermissionSet, "Broken")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Zero(t, r.calls)
}

func TestFetchAndReadWithoutRetriever(t *testing.T) {
	loader, _, _ := newTestLoader(t, nil)

	_, err := loader.FetchAndRead(context.Background(), PermissionSet, "Sales_User")
	assert.True(t, errors.Is(err, ErrNotFound))
}
