package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneDump = "../../pkg/blend/testdata/scene.json"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() {
		resolveJSON = false
		overrides.NoFixUp = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveTree(t *testing.T) {
	out, err := run(t, "resolve", sceneDump)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Root [Empty] 0x1000"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  Cube [Mesh] 0x2000"), lines[1])
}

func TestResolveJSON(t *testing.T) {
	out, err := run(t, "resolve", "--json", "--no-fixup", sceneDump, "0x2000")
	require.NoError(t, err)

	var views []nodeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	require.Len(t, views[0].Children, 1)

	cube := views[0].Children[0]
	assert.Equal(t, "Cube", cube.Name)
	assert.Equal(t, [3]float32{2, 3, 1}, cube.Scale)
	assert.Equal(t, "crate", cube.UserData["label"])
}

func TestResolveReportsFailures(t *testing.T) {
	_, err := run(t, "resolve", sceneDump, "0x9999")
	assert.Error(t, err)

	_, err = run(t, "resolve", sceneDump, "not-an-address")
	assert.Error(t, err)
}

func TestPropsYAML(t *testing.T) {
	out, err := run(t, "props", sceneDump, "8192")
	require.NoError(t, err)
	assert.Contains(t, out, "length: 1.5")
	assert.Contains(t, out, "label: crate")
}

func TestMatrix(t *testing.T) {
	out, err := run(t, "matrix", "--no-fixup", sceneDump, "0x2000", "parentinv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"2.0000", "0.0000", "0.0000", "0.0000"}, strings.Fields(lines[0]))
}
