package props

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	in := map[string]any{
		"id":  1,
		"foo": map[string]any{"bar": "bar", "inner": map[string]any{"baz": nil}},
		"nil": nil,
		"list": []any{
			map[string]any{"x": 1},
		},
		"empty": map[string]any{},
		"yaml":  map[any]any{"k": true},
	}
	want := map[string]any{
		"id":            1,
		"foo.bar":       "bar",
		"foo.inner.baz": nil,
		"nil":           nil,
		"list":          []any{map[string]any{"x": 1}},
		"yaml.k":        true,
	}
	if diff := cmp.Diff(want, Flatten(in)); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenKeepsNullLeaves(t *testing.T) {
	got := Flatten(map[string]any{"a": nil})
	v, ok := got["a"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestContainsProp(t *testing.T) {
	assert.True(t, ContainsProp("foo", []string{"foo"}))
	assert.True(t, ContainsProp("foo.bar", []string{"foo"}))
	assert.True(t, ContainsProp("foo.bar", []string{"foo.bar"}))
	assert.False(t, ContainsProp("foobar", []string{"foo"}))
	assert.False(t, ContainsProp("foo", []string{"foo.bar"}))
	assert.False(t, ContainsProp("foobar.x", []string{"foo"}))
}

func TestProject(t *testing.T) {
	flat := Flatten(map[string]any{
		"id":     1,
		"foo":    map[string]any{"bar": "bar", "foobar": "foobar"},
		"prop":   100,
		"nested": map[string]any{"a": "a"},
	})

	tests := []struct {
		name       string
		mode       Mode
		properties []string
		want       map[string]any
	}{
		{
			name: "all",
			mode: All,
			want: map[string]any{"foo.bar": "bar", "foo.foobar": "foobar", "prop": 100, "nested.a": "a"},
		},
		{
			name:       "include prefix",
			mode:       Include,
			properties: []string{"foo"},
			want:       map[string]any{"foo.bar": "bar", "foo.foobar": "foobar"},
		},
		{
			name:       "include leaf",
			mode:       Include,
			properties: []string{"foo.bar", "prop"},
			want:       map[string]any{"foo.bar": "bar", "prop": 100},
		},
		{
			name:       "exclude prefix",
			mode:       Exclude,
			properties: []string{"foo", "nested"},
			want:       map[string]any{"prop": 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, props, ok := Project(flat, []string{"id"}, tt.mode, tt.properties)
			require.True(t, ok)
			assert.Equal(t, map[string]any{"id": 1}, keys)
			assert.Equal(t, tt.want, props)
		})
	}
}

func TestProjectMissingKey(t *testing.T) {
	_, _, ok := Project(map[string]any{"foo": 1}, []string{"id"}, All, nil)
	assert.False(t, ok)

	keys, _, ok := Project(map[string]any{"id": nil}, []string{"id"}, All, nil)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": nil}, keys)
}

// 每个叶子恰好落入 keys、properties 或被 EXCLUDE 丢弃之一。
func TestProjectPartitionsLeaves(t *testing.T) {
	flat := Flatten(map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2, "d": 3},
		"e": "x",
	})
	for _, mode := range []Mode{All, Include, Exclude} {
		keys, props, ok := Project(flat, []string{"a"}, mode, []string{"b"})
		require.True(t, ok)
		for leaf := range flat {
			_, inKeys := keys[leaf]
			_, inProps := props[leaf]
			assert.False(t, inKeys && inProps, "%s: %s in both maps", mode, leaf)
			if !inKeys && !inProps {
				assert.NotEqual(t, All, mode, "%s: leaf %s discarded", mode, leaf)
			}
		}
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "ALL", All.String())
	assert.Equal(t, "INCLUDE", Include.String())
	assert.Equal(t, "EXCLUDE", Exclude.String())
}
