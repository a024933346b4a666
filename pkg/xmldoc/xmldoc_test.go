package xmldoc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCore(t testing.TB) *core.Core {
	t.Helper()

	objects, err := objectstore.New(memory.New())
	require.NoError(t, err)
	return core.New(objects)
}

func TestLoadSample(t *testing.T) {
	ctx := context.Background()
	c := setupCore(t)

	f, err := os.Open(filepath.Join("..", "importer", "testdata", "sample.xme"))
	require.NoError(t, err)
	defer f.Close()

	key, err := Load(ctx, c, f)
	require.NoError(t, err)
	require.NoError(t, key.Validate())

	root, err := c.LoadRoot(ctx, key)
	require.NoError(t, err)
	children, err := c.LoadChildren(ctx, root)
	require.NoError(t, err)
	require.Len(t, children, 1)

	project := children[0]
	assert.Equal(t, "project", c.GetAttribute(project, TagAttribute))
	assert.Equal(t, "SignalFlow", c.GetAttribute(project, "metaname"))
	assert.Equal(t, 1, c.GetLevel(project))

	name, err := c.LoadChild(ctx, project, "1")
	require.NoError(t, err)
	assert.Equal(t, "name", c.GetAttribute(name, TagAttribute))
	assert.Equal(t, "Demo", c.GetAttribute(name, TextAttribute))

	// project/folder/model/connection/connpoint
	connpoint, err := c.LoadByPath(ctx, root, "/1/4/2/4/2")
	require.NoError(t, err)
	assert.Equal(t, "connpoint", c.GetAttribute(connpoint, TagAttribute))
	assert.Equal(t, "src", c.GetAttribute(connpoint, "role"))

	target, err := c.LoadPointer(ctx, connpoint, "target")
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "id-0066-00000001", c.GetAttribute(target, "id"))
	assert.Nil(t, c.GetAttribute(connpoint, "target"))

	derived, err := c.LoadByPath(ctx, root, "/1/4/3")
	require.NoError(t, err)
	base, err := c.LoadPointer(ctx, derived, "derivedfrom")
	require.NoError(t, err)
	assert.Equal(t, "/1/4/2", c.GetStringPath(base))
}

func TestForwardAndNullReferences(t *testing.T) {
	c := setupCore(t)

	root, err := Parse(c, strings.NewReader(`<project>
  <reference id="r1" referred=""/>
  <reference id="r2" referred="a1"/>
  <atom id="a1">  spaced   text  </atom>
</project>`))
	require.NoError(t, err)

	ctx := context.Background()
	r1, err := c.LoadByPath(ctx, root, "/1/1")
	require.NoError(t, err)
	assert.True(t, c.HasPointer(r1, "referred"))
	target, err := c.LoadPointer(ctx, r1, "referred")
	require.NoError(t, err)
	assert.Nil(t, target)

	r2, err := c.LoadByPath(ctx, root, "/1/2")
	require.NoError(t, err)
	path, ok, err := c.GetPointerPath(r2, "referred")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/1/3", path)

	atom, err := c.LoadByPath(ctx, root, path)
	require.NoError(t, err)
	assert.Equal(t, "spaced   text", c.GetAttribute(atom, TextAttribute))

	// only known reference attributes become pointers
	assert.False(t, c.HasPointer(atom, "id"))
}

func TestParseErrors(t *testing.T) {
	c := setupCore(t)

	for _, doc := range []string{
		``,
		`<project><folder></project>`,
		`<project>`,
	} {
		_, err := Parse(c, strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrParse, "document %q", doc)
	}

	_, err := Parse(c, strings.NewReader(`<project><model derivedfrom="nowhere"/></project>`))
	assert.ErrorIs(t, err, ErrDanglingReference)
}
