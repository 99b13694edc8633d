package strata_test

import (
	"testing"

	strata "github.com/strata-format/go-strata"
	"github.com/stretchr/testify/require"
)

func TestSection_RootLookup(t *testing.T) {
	sec := strata.NewSection()
	sec.SetRoot("Host", strata.NewString("a"))

	t.Run("exact match", func(t *testing.T) {
		n, ok := sec.Root("Host")
		require.True(t, ok)
		require.Equal(t, "a", n.Text())
	})
	t.Run("case-insensitive fallback", func(t *testing.T) {
		n, ok := sec.Root("host")
		require.True(t, ok)
		require.Equal(t, "a", n.Text())
	})
	t.Run("exact match wins over folded", func(t *testing.T) {
		sec := strata.NewSection()
		sec.SetRoot("KEY", strata.NewString("upper"))
		sec.SetRoot("key", strata.NewString("lower"))
		n, _ := sec.Root("KEY")
		require.Equal(t, "upper", n.Text())
		n, _ = sec.Root("key")
		require.Equal(t, "lower", n.Text())
	})
	t.Run("absent", func(t *testing.T) {
		_, ok := sec.Root("missing")
		require.False(t, ok)
	})
}

func TestSection_Remove(t *testing.T) {
	sec := strata.NewSection()
	sec.SetRoot("a", strata.NewInt(1))
	sec.SetRoot("b", strata.NewInt(2))

	require.True(t, sec.Remove("a"))
	require.False(t, sec.Remove("a"))
	require.Equal(t, []string{"b"}, sec.Keys())

	t.Run("case-insensitive", func(t *testing.T) {
		require.True(t, sec.Remove("B"))
		require.Equal(t, 0, sec.Len())
	})
	t.Run("folded index repointed", func(t *testing.T) {
		sec := strata.NewSection()
		sec.SetRoot("Key", strata.NewInt(1))
		sec.SetRoot("KEY", strata.NewInt(2))
		require.True(t, sec.Remove("KEY"))
		n, ok := sec.Root("key")
		require.True(t, ok)
		require.Equal(t, int64(1), n.Int64())
	})
}

func TestSection_Paths(t *testing.T) {
	sec := strata.NewSection()

	t.Run("set auto-vivifies", func(t *testing.T) {
		require.NoError(t, sec.Set("a.b.c", strata.NewInt(1)))
		n, err := sec.Get("a.b.c")
		require.NoError(t, err)
		require.Equal(t, int64(1), n.Int64())
		require.NotNil(t, sec.GetSection("a.b"))
	})
	t.Run("absent path is nil without error", func(t *testing.T) {
		n, err := sec.Get("a.b.missing")
		require.NoError(t, err)
		require.Nil(t, n)
		n, err = sec.Get("nope.deep")
		require.NoError(t, err)
		require.Nil(t, n)
	})
	t.Run("get through scalar is a usage error", func(t *testing.T) {
		_, err := sec.Get("a.b.c.d")
		var ue *strata.UsageError
		require.ErrorAs(t, err, &ue)
		require.Equal(t, "Get", ue.Op)
	})
	t.Run("set through scalar is a usage error", func(t *testing.T) {
		err := sec.Set("a.b.c.d", strata.NewInt(2))
		var ue *strata.UsageError
		require.ErrorAs(t, err, &ue)
		require.Equal(t, "Set", ue.Op)
	})
	t.Run("malformed paths", func(t *testing.T) {
		for _, path := range []string{"", "a.", "a..b", ".a"} {
			_, err := sec.Get(path)
			var ue *strata.UsageError
			require.ErrorAs(t, err, &ue, "path %q", path)
		}
	})
}

func TestSection_SeparatorChange(t *testing.T) {
	sec := strata.NewSection()
	require.NoError(t, sec.SetValue("a.b", 1)) // splits on '.'

	sec.SetSeparator('/')
	n, err := sec.Get("a/b")
	require.NoError(t, err)
	require.Equal(t, int64(1), n.Int64())

	// With '/' as separator a dotted name is a single key.
	require.NoError(t, sec.SetValue("x.y", 2))
	n, ok := sec.Root("x.y")
	require.True(t, ok)
	require.Equal(t, int64(2), n.Int64())
}

func TestSection_Default(t *testing.T) {
	sec := strata.NewSection()

	n, err := sec.Default("retries", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n.Int64())

	// Second call keeps the stored value.
	n, err = sec.Default("retries", 99)
	require.NoError(t, err)
	require.Equal(t, int64(3), n.Int64())
}

func TestNewValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind strata.Kind
	}{
		{"string", "x", strata.KindString},
		{"bool", true, strata.KindBool},
		{"int", 42, strata.KindInt},
		{"int64", int64(-1), strata.KindInt},
		{"uint32", uint32(7), strata.KindInt},
		{"float64", 1.5, strata.KindFloat},
		{"bytes", []byte{1, 2}, strata.KindBinary},
		{"slice", []any{1, "x"}, strata.KindList},
		{"map", map[string]any{"k": 1}, strata.KindSection},
		{"nil", nil, strata.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := strata.NewValue(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.kind, n.Kind())
		})
	}

	t.Run("huge uint64 rejected", func(t *testing.T) {
		_, err := strata.NewValue(uint64(1) << 63)
		require.Error(t, err)
	})
	t.Run("unsupported type rejected", func(t *testing.T) {
		_, err := strata.NewValue(struct{}{})
		require.Error(t, err)
	})
	t.Run("map keys sorted", func(t *testing.T) {
		n, err := strata.NewValue(map[string]any{"b": 1, "a": 2, "c": 3})
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c"}, n.Section().Keys())
	})
}

func TestNode_Coercions(t *testing.T) {
	t.Run("int to string", func(t *testing.T) {
		v, ok := strata.NewInt(42).AsString()
		require.True(t, ok)
		require.Equal(t, "42", v)
	})
	t.Run("string to int", func(t *testing.T) {
		v, ok := strata.NewString("42").AsInt64()
		require.True(t, ok)
		require.Equal(t, int64(42), v)
	})
	t.Run("non-numeric string to int fails", func(t *testing.T) {
		_, ok := strata.NewString("forty").AsInt64()
		require.False(t, ok)
	})
	t.Run("int to float", func(t *testing.T) {
		v, ok := strata.NewInt(2).AsFloat64()
		require.True(t, ok)
		require.Equal(t, 2.0, v)
	})
	t.Run("case-insensitive bool text", func(t *testing.T) {
		v, ok := strata.NewString("TRUE").AsBool()
		require.True(t, ok)
		require.True(t, v)
		_, ok = strata.NewString("yes").AsBool()
		require.False(t, ok)
	})
	t.Run("negative int to uint fails", func(t *testing.T) {
		_, ok := strata.NewInt(-1).AsUint64()
		require.False(t, ok)
	})
	t.Run("containers have no scalar form", func(t *testing.T) {
		_, ok := strata.NewList().AsString()
		require.False(t, ok)
		_, ok = strata.NewBinary([]byte("x")).AsInt64()
		require.False(t, ok)
	})
}

func TestNode_Equal(t *testing.T) {
	require.True(t, strata.NewInt(1).Equal(strata.NewInt(1)))
	require.False(t, strata.NewInt(1).Equal(strata.NewInt(2)))
	require.False(t, strata.NewInt(1).Equal(strata.NewString("1")))

	t.Run("comments count", func(t *testing.T) {
		a := strata.NewInt(1)
		b := strata.NewInt(1)
		b.Comments = []string{"c"}
		require.False(t, a.Equal(b))
	})
	t.Run("lists compare element-wise", func(t *testing.T) {
		a := strata.NewList(strata.NewInt(1), strata.NewString("x"))
		b := strata.NewList(strata.NewInt(1), strata.NewString("x"))
		require.True(t, a.Equal(b))
		b.Append(strata.NewInt(2))
		require.False(t, a.Equal(b))
	})
}

func TestTypedAccessors(t *testing.T) {
	doc := "" +
		"name: demo\n" +
		"port: 8080\n" +
		"ratio: 0.5\n" +
		"debug: true\n" +
		"loose: TRUE\n" +
		"blob= aGVsbG8=\n" +
		"tags:\n    - a\n    - b\n" +
		"server:\n    host: x\n"
	sec, err := strata.Parse([]byte(doc))
	require.NoError(t, err)

	require.Equal(t, "demo", sec.GetString("name", "?"))
	require.Equal(t, "?", sec.GetString("missing", "?"))
	require.Equal(t, 8080, sec.GetInt("port", 0))
	require.Equal(t, int64(8080), sec.GetInt64("port", 0))
	require.Equal(t, uint64(8080), sec.GetUint64("port", 0))
	require.Equal(t, 0.5, sec.GetFloat64("ratio", 0))
	require.Equal(t, float32(0.5), sec.GetFloat32("ratio", 0))
	require.True(t, sec.GetBool("debug", false))
	require.True(t, sec.GetBool("loose", false))
	require.Equal(t, []byte("hello"), sec.GetBytes("blob", nil))
	require.Equal(t, []string{"a", "b"}, sec.GetStringSlice("tags", nil))
	require.Len(t, sec.GetList("tags", nil), 2)
	require.NotNil(t, sec.GetSection("server"))
	require.Nil(t, sec.GetSection("name"))
	require.Equal(t, int64(8080), sec.GetAny("port", nil))

	t.Run("coercion across kinds", func(t *testing.T) {
		require.Equal(t, "8080", sec.GetString("port", ""))
		require.Equal(t, 8080.0, sec.GetFloat64("port", 0))
	})
	t.Run("default on kind mismatch", func(t *testing.T) {
		require.Equal(t, 7, sec.GetInt("name", 7))
		require.Equal(t, []byte("d"), sec.GetBytes("name", []byte("d")))
		require.Nil(t, sec.GetStringSlice("name", nil))
	})
	t.Run("default on unreachable path", func(t *testing.T) {
		require.Equal(t, "?", sec.GetString("name.sub", "?"))
	})
}
