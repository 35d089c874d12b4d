package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.db")
	s, err := OpenWorld(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func reopen(t *testing.T, s *Store, path string) *Store {
	t.Helper()
	require.NoError(t, s.Close())
	s2, err := OpenWorld(path)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() })
	return s2
}

func TestOpenWorldSeedsMinimal(t *testing.T) {
	s, path := openTemp(t)
	assert.True(t, s.HasData())
	assert.Equal(t, path, s.Path())

	s = reopen(t, s, path)
	wiz, ok := s.DB().Object(1)
	require.True(t, ok)
	assert.Equal(t, "Wizard", wiz.Name)
	assert.True(t, wiz.IsWizard())

	ref, err := s.LookupPlayer("WIZARD")
	require.NoError(t, err)
	assert.Equal(t, gamedb.DBRef(1), ref)
}

func TestAttrsSurviveReopen(t *testing.T) {
	s, path := openTemp(t)
	num, err := s.DefineAttr("greeting")
	require.NoError(t, err)
	assert.Equal(t, gamedb.UserAttrBase, num)
	require.NoError(t, s.SetAttr(1, num, "[ucstr(hi)]"))
	require.NoError(t, s.SetAttr(1, gamedb.AttrVA, "va"))

	s = reopen(t, s, path)
	got, ok := s.DB().AttrNum("GREETING")
	require.True(t, ok)
	assert.Equal(t, num, got)
	assert.Equal(t, num+1, s.DB().NextAttr)

	a, ok := s.DB().GetAttr(1, num)
	require.True(t, ok)
	assert.Equal(t, "[ucstr(hi)]", a.Value)

	require.NoError(t, s.SetAttr(1, num, ""))
	s = reopen(t, s, path)
	_, ok = s.DB().GetAttr(1, num)
	assert.False(t, ok)
}

func TestSetAttrMissingObject(t *testing.T) {
	s, _ := openTemp(t)
	err := s.SetAttr(42, gamedb.AttrVA, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUFuncsAndRedirects(t *testing.T) {
	s, path := openTemp(t)
	num, err := s.DefineAttr("DOUBLE")
	require.NoError(t, err)
	require.NoError(t, s.PutUFunc(&gamedb.UFuncDef{Name: "double", Obj: 1, Attr: num, Flags: gamedb.UfPriv}))
	require.NoError(t, s.PutRedirect(0, 1))
	assert.ErrorIs(t, s.PutUFunc(&gamedb.UFuncDef{Name: "bad", Obj: 77}), ErrNotFound)
	assert.ErrorIs(t, s.PutRedirect(0, 77), ErrNotFound)

	s = reopen(t, s, path)
	def, ok := s.DB().UFuncs["DOUBLE"]
	require.True(t, ok)
	assert.Equal(t, gamedb.UFuncDef{Name: "DOUBLE", Obj: 1, Attr: num, Flags: gamedb.UfPriv}, *def)
	target, ok := s.DB().RedirectTarget(0)
	require.True(t, ok)
	assert.Equal(t, gamedb.DBRef(1), target)

	require.NoError(t, s.DeleteUFunc("Double"))
	require.NoError(t, s.DeleteRedirect(0))
	s = reopen(t, s, path)
	assert.Empty(t, s.DB().UFuncs)
	assert.Empty(t, s.DB().Redirects)
}

func TestDeleteObject(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.AddObject(&gamedb.Object{
		DBRef: 2, Name: "Bob", Location: 0, Owner: 2, Parent: gamedb.Nothing,
		Flags: [3]int{int(gamedb.TypePlayer), 0, 0},
	}))
	require.NoError(t, s.PutRedirect(2, 1))
	_, err := s.LookupPlayer("bob")
	require.NoError(t, err)

	require.NoError(t, s.DeleteObject(2))
	s = reopen(t, s, path)
	_, ok := s.DB().Object(2)
	assert.False(t, ok)
	_, ok = s.DB().Redirects[2]
	assert.False(t, ok)
	_, err = s.LookupPlayer("bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBackup(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.SetAttr(1, gamedb.AttrVA, "saved"))
	dst := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, s.Backup(dst))

	b, err := OpenWorld(dst)
	require.NoError(t, err)
	defer b.Close()
	a, ok := b.DB().GetAttr(1, gamedb.AttrVA)
	require.True(t, ok)
	assert.Equal(t, "saved", a.Value)
}

func TestKeys(t *testing.T) {
	for _, ref := range []gamedb.DBRef{gamedb.Home, gamedb.Nothing, 0, 1, 123456} {
		assert.Equal(t, ref, keyToRef(refToKey(ref)))
	}
	assert.Less(t, string(refToKey(gamedb.Nothing)), string(refToKey(0)))
	assert.Equal(t, 300, keyToInt(intToKey(300)))
	assert.Zero(t, keyToInt([]byte{1}))
}
