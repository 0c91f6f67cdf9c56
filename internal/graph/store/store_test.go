package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ifmap2json/pkg/models"
)

func TestObjectIDLayout(t *testing.T) {
	assert.Equal(t, "00000000-0000-0001-0000-000000000002", ObjectID(1, 2))
	assert.Equal(t, "deadbeef-cafe-f00d-0123-456789abcdef", ObjectID(0xdeadbeefcafef00d, 0x0123456789abcdef))
	assert.Len(t, ObjectID(0, 0), 36)
}

func TestObjectIDFromMetadataIsPure(t *testing.T) {
	meta := func(high, low interface{}) map[string]interface{} {
		return map[string]interface{}{
			"id_perms": map[string]interface{}{
				"uuid": map[string]interface{}{
					"uuid_mslong": high,
					"uuid_lslong": low,
				},
			},
		}
	}

	first, ok := ObjectIDFromMetadata(meta("16045690984503111693", "81985529216486895"))
	require.True(t, ok)
	second, ok := ObjectIDFromMetadata(meta("16045690984503111693", "81985529216486895"))
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, "deadbeef-cafe-f00d-0123-456789abcdef", first)

	signed, ok := ObjectIDFromMetadata(meta("-2401053089206439923", map[string]interface{}{"#text": "81985529216486895"}))
	require.True(t, ok)
	assert.Equal(t, first, signed)

	_, ok = ObjectIDFromMetadata(meta("12", nil))
	assert.False(t, ok)
	_, ok = ObjectIDFromMetadata(meta("twelve", "1"))
	assert.False(t, ok)
	_, ok = ObjectIDFromMetadata(map[string]interface{}{"display_name": "x"})
	assert.False(t, ok)
	_, ok = ObjectIDFromMetadata(nil)
	assert.False(t, ok)
}

func TestGetByNameMatchesExactly(t *testing.T) {
	s := New()
	s.Put(models.NewObjectRecord("id-1", []string{"d", "p", "vn"}, "virtual_network"))
	s.Put(models.NewObjectRecord("id-2", []string{"d", "p:vn"}, "virtual_network"))

	obj, ok := s.GetByName([]string{"d", "p", "vn"}, "virtual_network")
	require.True(t, ok)
	assert.Equal(t, "id-1", obj.ID)

	obj, ok = s.GetByName([]string{"d", "p:vn"}, "virtual_network")
	require.True(t, ok)
	assert.Equal(t, "id-2", obj.ID)

	_, ok = s.GetByName([]string{"d", "p", "VN"}, "virtual_network")
	assert.False(t, ok)
	_, ok = s.GetByName([]string{"d", "p"}, "virtual_network")
	assert.False(t, ok)
	_, ok = s.GetByName([]string{"d", "p", "vn"}, "virtual-network")
	assert.False(t, ok)
}

func TestDeleteAndLen(t *testing.T) {
	s := New()
	s.Put(models.NewObjectRecord("b", []string{"b"}, "t"))
	s.Put(models.NewObjectRecord("a", []string{"a"}, "t"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotEncodesAndDetaches(t *testing.T) {
	s := New()
	obj := models.NewObjectRecord("id-1", []string{"a", "b", "c"}, "virtual_network")
	obj.Props["prop:display_name"] = "c"
	obj.Props["prop:id_perms"] = map[string]interface{}{"enable": "true"}
	s.Put(obj)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, 1)
	wire := snap["id-1"]
	assert.Equal(t, models.Encoded(`["a","b","c"]`), wire["fq_name"])
	assert.Equal(t, models.Encoded(`"virtual_network"`), wire["type"])
	assert.Equal(t, models.Encoded(`"c"`), wire["prop:display_name"])
	assert.Equal(t, models.Encoded(`{"enable":"true"}`), wire["prop:id_perms"])
	assert.NotContains(t, wire, "id")

	obj.Props["prop:display_name"] = "changed"
	obj.Refs["ref:network_ipam:x"] = models.RefAttr{}
	s.Delete("id-1")

	assert.Equal(t, models.Encoded(`"c"`), snap["id-1"]["prop:display_name"])
	assert.NotContains(t, snap["id-1"], "ref:network_ipam:x")
}

func TestNameIndex(t *testing.T) {
	s := New()
	s.Put(models.NewObjectRecord("id-1", []string{"d", "p", "vn1"}, "virtual_network"))
	s.Put(models.NewObjectRecord("id-2", []string{"d", "p", "vn2"}, "virtual_network"))
	s.Put(models.NewObjectRecord("id-3", []string{"d", "p"}, "project"))

	index := s.NameIndex()
	assert.Equal(t, models.NameIndex{
		"virtual_network": {"d:p:vn1:id-1": nil, "d:p:vn2:id-2": nil},
		"project":         {"d:p:id-3": nil},
	}, index)
}

func TestGetByNameFollowsRenameAndDelete(t *testing.T) {
	s := New()
	obj := models.NewObjectRecord("id-1", []string{"d", "p", "old"}, "virtual_network")
	s.Put(obj)

	obj.FQName = []string{"d", "p", "new"}
	s.Put(obj)
	_, ok := s.GetByName([]string{"d", "p", "old"}, "virtual_network")
	assert.False(t, ok)
	got, ok := s.GetByName([]string{"d", "p", "new"}, "virtual_network")
	require.True(t, ok)
	assert.Equal(t, "id-1", got.ID)

	s.Put(models.NewObjectRecord("id-0", []string{"d", "p", "new"}, "virtual_network"))
	got, ok = s.GetByName([]string{"d", "p", "new"}, "virtual_network")
	require.True(t, ok)
	assert.Equal(t, "id-0", got.ID)

	s.Delete("id-0")
	s.Delete("id-1")
	_, ok = s.GetByName([]string{"d", "p", "new"}, "virtual_network")
	assert.False(t, ok)
}
