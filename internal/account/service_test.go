package account

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"htadmin/internal/auth"
	"htadmin/internal/changelog"
	"htadmin/internal/config"
	"htadmin/internal/htfile"
	"htadmin/internal/policy"
)

const alicePassword = "OldPass1."

type fixture struct {
	svc     *Service
	cfg     config.Config
	changes *changelog.Store
}

// newFixture seeds an htpasswd with alice and bob, an htgroup where bob is
// the only admin, and a change-log database.
func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.PasswdFile = filepath.Join(dir, "htpasswd")
	cfg.GroupFile = filepath.Join(dir, "htgroup")
	cfg.DatabaseFile = filepath.Join(dir, "changelog.db")
	if mutate != nil {
		mutate(&cfg)
	}

	aliceHash, err := auth.HashPassword(alicePassword)
	require.NoError(t, err)
	bobHash, err := auth.HashPassword("BobPass1.")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.PasswdFile,
		[]byte("alice:"+aliceHash+"\nbob:"+bobHash+"\n"), 0644))
	require.NoError(t, os.WriteFile(cfg.GroupFile,
		[]byte("admin: bob\ndev: alice\n"), 0644))

	var changes *changelog.Store
	if cfg.UseDatabase {
		changes, err = changelog.Open(cfg.DatabaseFile)
		require.NoError(t, err)
		t.Cleanup(func() { _ = changes.Close() })
	}

	svc, err := NewService(cfg, policy.New(cfg.AdminGroup), changes)
	require.NoError(t, err)
	return &fixture{svc: svc, cfg: cfg, changes: changes}
}

func (f *fixture) storedHash(t *testing.T, name string) string {
	t.Helper()
	users, err := htfile.LoadPasswd(f.cfg.PasswdFile)
	require.NoError(t, err)
	hash, ok := users.Hash(name)
	require.True(t, ok, "no entry for %s", name)
	return hash
}

func TestChangePassword_SelfService(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345",
	})
	require.NoError(t, err)
	require.False(t, out.Created)
	require.Equal(t, "Password changed", out.Message)

	ok, err := auth.VerifyPassword(f.storedHash(t, "alice"), "Abc12345")
	require.NoError(t, err)
	require.True(t, ok)

	_, found, err := f.changes.LastChange("alice")
	require.NoError(t, err)
	require.True(t, found, "a successful change must be stamped in the change log")
}

func TestChangePassword_PatternRejection_NoMutation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "alice",
		New: "short", Repeat: "short",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	require.Contains(t, rej.Message, "does not match requirements")
	require.Contains(t, rej.Message, f.cfg.PasswordPatternHelp)

	okPw, err := auth.VerifyPassword(f.storedHash(t, "alice"), alicePassword)
	require.NoError(t, err)
	require.True(t, okPw, "rejection must not touch the credential file")

	_, found, err := f.changes.LastChange("alice")
	require.NoError(t, err)
	require.False(t, found, "rejection must not touch the change log")
}

func TestChangePassword_RepeatMismatch(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "alice",
		New: "Abc12345", Repeat: "Abc12346",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "Passwords differ")
}

func TestChangePassword_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "authenticated")
}

func TestChangePassword_OtherUserNeedsAdmin(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "bob",
		New: "Abc12345", Repeat: "Abc12345",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "belong to group")

	out, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345",
	})
	require.NoError(t, err)
	require.Equal(t, "Password changed", out.Message)
}

func TestChangePassword_CreationAlwaysNeedsAdmin(t *testing.T) {
	f := newFixture(t, nil)

	// Even "self" creation is an admin operation.
	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "dave", Target: "dave",
		New: "Abc12345", Repeat: "Abc12345",
	})
	_, ok := AsRejection(err)
	require.True(t, ok)

	out, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "carol",
		New: "Abc12345", Repeat: "Abc12345",
	})
	require.NoError(t, err)
	require.True(t, out.Created)
	require.Equal(t, "User created", out.Message)

	okPw, err := auth.VerifyPassword(f.storedHash(t, "carol"), "Abc12345")
	require.NoError(t, err)
	require.True(t, okPw)
}

func TestChangePassword_AdminGroupMissing(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.AdminGroup = "wheel" })

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "'wheel' is not defined")
}

func TestChangePassword_OldPassword(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.AskOldPassword = true })

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345", Old: "nope",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "Old password does not match")

	out, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "alice", Target: "alice",
		New: "Abc12345", Repeat: "Abc12345", Old: alicePassword,
	})
	require.NoError(t, err)
	require.Equal(t, "Password changed", out.Message)

	// An admin editing another user skips the old-password confirmation.
	out, err = f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "alice",
		New: "Def67890", Repeat: "Def67890",
	})
	require.NoError(t, err)
	require.Equal(t, "Password changed", out.Message)
}

func TestChangePassword_ProvisionsHomes(t *testing.T) {
	base1 := t.TempDir()
	base2 := t.TempDir()
	f := newFixture(t, func(cfg *config.Config) {
		cfg.CreateHome = true
		cfg.HomePaths = []string{base1, base2}
	})

	out, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "carol",
		New: "Abc12345", Repeat: "Abc12345",
	})
	require.NoError(t, err)
	require.True(t, out.Created)

	for _, base := range []string{base1, base2} {
		st, err := os.Stat(filepath.Join(base, "carol"))
		require.NoError(t, err)
		require.True(t, st.IsDir())
	}

	_, found, err := f.changes.LastChange("carol")
	require.NoError(t, err)
	require.True(t, found)
}

func TestChangePassword_HomeConflictCreatesNothing(t *testing.T) {
	base1 := t.TempDir()
	base2 := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base2, "carol"), 0755))

	f := newFixture(t, func(cfg *config.Config) {
		cfg.CreateHome = true
		cfg.HomePaths = []string{base1, base2}
	})

	_, err := f.svc.ChangePassword(PasswordRequest{
		Identity: "bob", Target: "carol",
		New: "Abc12345", Repeat: "Abc12345",
	})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Contains(t, rej.Message, "probably exists")

	_, err = os.Stat(filepath.Join(base1, "carol"))
	require.True(t, os.IsNotExist(err), "conflict must not create any directory")

	users, err := htfile.LoadPasswd(f.cfg.PasswdFile)
	require.NoError(t, err)
	require.False(t, users.Exists("carol"), "conflict must not create the credential entry")
}

func TestSetMemberships_ReconcilesAndIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	// "qa" does not exist in the group file and must be silently ignored.
	out, err := f.svc.SetMemberships("bob", "alice", map[string]bool{"admin": true, "qa": true})
	require.NoError(t, err)
	require.Equal(t, "User groups changed", out.Message)

	groups, err := htfile.LoadGroup(f.cfg.GroupFile)
	require.NoError(t, err)
	require.True(t, groups.IsMember("alice", "admin"))
	require.False(t, groups.IsMember("alice", "dev"), "unchecked groups are removed")
	require.False(t, groups.Exists("qa"), "unknown desired groups are not auto-created")
	first := string(groups.Bytes())

	_, err = f.svc.SetMemberships("bob", "alice", map[string]bool{"admin": true, "qa": true})
	require.NoError(t, err)
	groups, err = htfile.LoadGroup(f.cfg.GroupFile)
	require.NoError(t, err)
	require.Equal(t, first, string(groups.Bytes()), "same desired set twice yields the same state")
}

func TestSetMemberships_AdminOnlyNoSelfService(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SetMemberships("alice", "alice", map[string]bool{"dev": true})
	rej, ok := AsRejection(err)
	require.True(t, ok, "non-admins may not edit memberships, not even their own")
	require.Contains(t, rej.Message, "belong to group")
}

func TestMemberships_ListsEveryGroup(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Memberships("alice", "alice")
	_, ok := AsRejection(err)
	require.True(t, ok, "membership listing is admin-gated")

	m, err := f.svc.Memberships("bob", "alice")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"admin": false, "dev": true}, m)
}
