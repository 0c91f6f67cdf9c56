package graphdot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ifmap2json/pkg/models"
)

func sampleObjects() []*models.ObjectRecord {
	ipam := models.NewObjectRecord("ipam-1", []string{"d", "p", "ipam"}, "network_ipam")
	vn := models.NewObjectRecord("vn-1", []string{"d", "p", "vn"}, "virtual_network")
	vn.Refs[models.RefKey(ipam)] = models.RefAttr{}
	vn.Refs["ref:route_table:gone"] = models.RefAttr{}
	return []*models.ObjectRecord{ipam, vn}
}

func TestRenderNodesAndEdges(t *testing.T) {
	out, err := Render(context.Background(), sampleObjects())
	require.NoError(t, err)

	dot := string(out)
	assert.Contains(t, dot, "ipam-1")
	assert.Contains(t, dot, "vn-1")
	assert.Contains(t, dot, "network_ipam")
	assert.Equal(t, 1, strings.Count(dot, "->"))
	assert.NotContains(t, dot, "gone")
	assert.NotContains(t, dot, "_draw_")
	assert.NotContains(t, dot, "_ldraw_")
}

func TestWriterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphs", "poll.dot")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteGraph(sampleObjects()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "digraph")
}

func TestSplitRefKey(t *testing.T) {
	typ, id, ok := splitRefKey("ref:network_ipam:00000000-0000-0005-0000-000000000006")
	require.True(t, ok)
	assert.Equal(t, "network_ipam", typ)
	assert.Equal(t, "00000000-0000-0005-0000-000000000006", id)

	_, _, ok = splitRefKey("prop:display_name")
	assert.False(t, ok)
	_, _, ok = splitRefKey("ref:network_ipam")
	assert.False(t, ok)
}
