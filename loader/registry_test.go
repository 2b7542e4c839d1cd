package loader

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/mm"
)

func exitWith(code int) abi.Program {
	return func(abi.CPU) int { return code }
}

func TestRegistry_Resolve(t *testing.T) {
	registry := New()
	registry.Register("init", exitWith(0))

	image, err := registry.Resolve("init")
	require.NoError(t, err)
	assert.Equal(t, "init", image.Name)
	require.Len(t, image.Segments, 2)
	assert.EqualValues(t, mm.ImageBase, image.Segments[0].Addr)
	assert.Equal(t, mm.PermR|mm.PermX, image.Segments[0].Perm)
	assert.Equal(t, "init", string(image.Segments[0].Data))
	assert.EqualValues(t, mm.ImageBase+mm.PageSize, image.Segments[1].Addr)
	assert.True(t, registry.Cached("init"))

	again, err := registry.Resolve("init")
	require.NoError(t, err)
	assert.Same(t, image, again)

	registry.Register("init", exitWith(1))
	assert.False(t, registry.Cached("init"))

	_, err = registry.Resolve("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"init"}, registry.Names())
}

func TestRegistry_DecodeManifest(t *testing.T) {
	var testCases = []struct {
		description string
		manifest    string
		expectErr   bool
		expectPages []uint64
	}{
		{
			description: "two segments",
			manifest: `images:
  - name: big
    segments:
      - pages: 2
        perm: rx
        data: code
      - pages: 3
        perm: rw
`,
			expectPages: []uint64{2, 3},
		},
		{
			description: "bad permission",
			manifest: `images:
  - name: big
    segments:
      - pages: 1
        perm: rz
`,
			expectErr: true,
		},
		{
			description: "zero pages",
			manifest: `images:
  - name: big
    segments:
      - pages: 0
        perm: r
`,
			expectErr: true,
		},
		{description: "invalid yaml", manifest: "images: [", expectErr: true},
	}

	for _, testCase := range testCases {
		registry := New(WithCacheSize(2))
		registry.Register("big", exitWith(0))
		err := registry.DecodeManifest([]byte(testCase.manifest))
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		image, err := registry.Resolve("big")
		require.NoError(t, err, testCase.description)
		require.Len(t, image.Segments, len(testCase.expectPages), testCase.description)
		addr := uint64(mm.ImageBase)
		for i, pages := range testCase.expectPages {
			assert.Equal(t, addr, image.Segments[i].Addr, testCase.description)
			assert.Equal(t, pages*mm.PageSize, image.Segments[i].Size, testCase.description)
			addr += pages * mm.PageSize
		}
	}
}

func TestRegistry_LoadManifest(t *testing.T) {
	dir := t.TempDir()
	location := path.Join(dir, "images.yaml")
	require.NoError(t, os.WriteFile(location, []byte(`images:
  - name: app
    segments:
      - pages: 1
        perm: rwx
`), 0o644))

	registry := New()
	registry.Register("app", exitWith(0))
	require.NoError(t, registry.LoadManifest(context.Background(), "file://"+location))

	image, err := registry.Resolve("app")
	require.NoError(t, err)
	require.Len(t, image.Segments, 1)
	assert.Equal(t, mm.PermR|mm.PermW|mm.PermX, image.Segments[0].Perm)

	assert.Error(t, registry.LoadManifest(context.Background(), "file://"+path.Join(dir, "missing.yaml")))
}
