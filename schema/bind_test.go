package schema_test

import (
	"testing"

	strata "github.com/strata-format/go-strata"
	"github.com/strata-format/go-strata/schema"
	"github.com/stretchr/testify/require"
)

func TestSave_ModifiedOnly(t *testing.T) {
	rec := &appConfig{}

	t.Run("fresh record saves nothing", func(t *testing.T) {
		sec, err := schema.Save(rec, false)
		require.NoError(t, err)
		require.Equal(t, 0, sec.Len())
	})

	require.NoError(t, schema.Set(rec, "name", "demo"))

	t.Run("only the written field appears", func(t *testing.T) {
		sec, err := schema.Save(rec, false)
		require.NoError(t, err)
		require.Equal(t, []string{"name"}, sec.Keys())
		require.Equal(t, "demo", sec.GetString("name", ""))
	})

	t.Run("nested writes pull in their section", func(t *testing.T) {
		require.NoError(t, schema.Set(rec, "server.port", 9090))
		sec, err := schema.Save(rec, false)
		require.NoError(t, err)
		require.Equal(t, []string{"name", "server"}, sec.Keys())
		srv := sec.GetSection("server")
		require.NotNil(t, srv)
		require.Equal(t, []string{"port"}, srv.Keys())
	})
}

func TestSave_IncludeUnmodified(t *testing.T) {
	rec := &appConfig{}
	rec.Name = "demo"
	rec.Server.Port = 8080

	sec, err := schema.Save(rec, true)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "Debug", "Ratio", "Tags", "Limits", "Token", "server"}, sec.Keys())
	require.Equal(t, int64(8080), sec.GetInt64("server.port", 0))
}

func TestSave_EmitsComments(t *testing.T) {
	rec := &serverConfig{Host: "x"}
	sec, err := schema.Save(rec, true)
	require.NoError(t, err)

	out, err := strata.Marshal(sec)
	require.NoError(t, err)
	require.Contains(t, string(out), "# listen address\nhost: x\n")
}

func TestSave_MapKeysSorted(t *testing.T) {
	rec := &appConfig{Limits: map[string]int{"b": 2, "a": 1, "c": 3}}
	sec, err := schema.Save(rec, true)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, sec.GetSection("Limits").Keys())
}

func TestSave_UintOverflow(t *testing.T) {
	type rec struct {
		schema.Flags
		N uint64 `strata:"n"`
	}
	r := &rec{N: 1 << 63}
	_, err := schema.Save(r, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflows")
}

func TestLoadSave_RoundTrip(t *testing.T) {
	src := &appConfig{
		Name:   "demo",
		Debug:  true,
		Ratio:  0.25,
		Tags:   []string{"x", "y"},
		Limits: map[string]int{"reqs": 10},
		Token:  []byte{1, 2, 3},
	}
	src.Server.Host = "localhost"
	src.Server.Port = 8080
	src.Server.TLS.Cert = "/etc/cert.pem"

	sec, err := schema.Save(src, true)
	require.NoError(t, err)

	// Through the textual form, as a durable save would go.
	out, err := strata.Marshal(sec)
	require.NoError(t, err)
	back, err := strata.Parse(out)
	require.NoError(t, err)

	dst := &appConfig{}
	require.NoError(t, schema.Load(dst, back))

	require.Equal(t, "demo", dst.Name)
	require.True(t, dst.Debug)
	require.Equal(t, 0.25, dst.Ratio)
	require.Equal(t, []string{"x", "y"}, dst.Tags)
	require.Equal(t, map[string]int{"reqs": 10}, dst.Limits)
	require.Equal(t, []byte{1, 2, 3}, dst.Token)
	require.Equal(t, "localhost", dst.Server.Host)
	require.Equal(t, 8080, dst.Server.Port)
	require.Equal(t, "/etc/cert.pem", dst.Server.TLS.Cert)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	sec, err := strata.Parse([]byte("Debug: true\n"))
	require.NoError(t, err)

	rec := &appConfig{Name: "stale", Ratio: 99}
	require.NoError(t, schema.Load(rec, sec))

	require.True(t, rec.Debug)
	require.Equal(t, "default", rec.Name)
	require.Equal(t, 1.5, rec.Ratio)
	require.Equal(t, []string{"base"}, rec.Tags)

	t.Run("presence drives the modification bits", func(t *testing.T) {
		mod, err := schema.IsModified(rec, "Debug")
		require.NoError(t, err)
		require.True(t, mod)
		mod, err = schema.IsModified(rec, "name")
		require.NoError(t, err)
		require.False(t, mod)
	})
}

func TestLoad_DefaultsAreIsolated(t *testing.T) {
	rec1 := &appConfig{}
	require.NoError(t, schema.Load(rec1, strata.NewSection()))
	rec1.Tags[0] = "mutated"

	rec2 := &appConfig{}
	require.NoError(t, schema.Load(rec2, strata.NewSection()))
	require.Equal(t, []string{"base"}, rec2.Tags)
}

func TestLoad_UnconvertibleFallsBackToDefault(t *testing.T) {
	doc := "" +
		"name: kept\n" +
		"Ratio: not-a-number\n" +
		"Tags: single\n"
	sec, err := strata.Parse([]byte(doc))
	require.NoError(t, err)

	rec := &appConfig{}
	require.NoError(t, schema.Load(rec, sec))

	require.Equal(t, "kept", rec.Name)
	// Unconvertible values fall back to the default with the bit cleared.
	require.Equal(t, 1.5, rec.Ratio)
	require.Equal(t, []string{"base"}, rec.Tags)

	mod, err := schema.IsModified(rec, "Ratio")
	require.NoError(t, err)
	require.False(t, mod)
}

func TestLoad_CoercesScalarText(t *testing.T) {
	// A quoted-looking number in the document still lands in an int field.
	sec := strata.NewSection()
	sec.SetRoot("port", strata.NewString("8080"))
	sec.SetRoot("host", strata.NewInt(10))

	rec := &serverConfig{}
	require.NoError(t, schema.Load(rec, sec))
	require.Equal(t, 8080, rec.Port)
	require.Equal(t, "10", rec.Host)
}

func TestSetGet_Paths(t *testing.T) {
	rec := &appConfig{}

	require.NoError(t, schema.Set(rec, "server.host", "a"))
	require.Equal(t, "a", rec.Server.Host)

	v, err := schema.Get(rec, "server.host")
	require.NoError(t, err)
	require.Equal(t, "a", v)

	t.Run("case-insensitive segments", func(t *testing.T) {
		require.NoError(t, schema.Set(rec, "SERVER.PORT", 81))
		require.Equal(t, 81, rec.Server.Port)
	})
	t.Run("numeric conversion", func(t *testing.T) {
		require.NoError(t, schema.Set(rec, "server.port", int64(82)))
		require.Equal(t, 82, rec.Server.Port)
	})
	t.Run("incompatible value", func(t *testing.T) {
		err := schema.Set(rec, "server.port", "not a number")
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		require.Error(t, schema.Set(rec, "server.nope", 1))
		_, err := schema.Get(rec, "nope")
		require.Error(t, err)
	})
	t.Run("mutation requires a pointer", func(t *testing.T) {
		err := schema.Set(appConfig{}, "name", "x")
		require.Error(t, err)
	})
}

func TestOnChange(t *testing.T) {
	rec := &appConfig{}
	var paths []string
	rec.OnChange(func(field string) { paths = append(paths, field) })

	require.NoError(t, schema.Set(rec, "name", "demo"))
	require.NoError(t, schema.Set(rec, "Server.Port", 80))

	// Paths are reported with the declared key names.
	require.Equal(t, []string{"name", "server.port"}, paths)
}

func TestOnChange_SurvivesNestedReset(t *testing.T) {
	rec := &appConfig{}
	var paths []string
	rec.Server.OnChange(func(field string) { paths = append(paths, field) })

	// A document without a "server" key resets the nested record to its
	// default value.
	sec, err := strata.Parse([]byte("name: demo\n"))
	require.NoError(t, err)
	require.NoError(t, schema.Load(rec, sec))

	require.NoError(t, schema.Set(&rec.Server, "port", 80))
	require.Equal(t, []string{"port"}, paths)
}

func TestModificationTracking(t *testing.T) {
	rec := &appConfig{}

	mod, err := schema.AnyModified(rec)
	require.NoError(t, err)
	require.False(t, mod)

	require.NoError(t, schema.Set(rec, "server.tls.cert", "c"))

	t.Run("deep write marks ancestors as containing changes", func(t *testing.T) {
		mod, err := schema.IsModified(rec, "server")
		require.NoError(t, err)
		require.True(t, mod)
		mod, err = schema.AnyModified(rec)
		require.NoError(t, err)
		require.True(t, mod)
	})

	t.Run("clearing a nested field cascades", func(t *testing.T) {
		require.NoError(t, schema.SetModified(rec, "server", false))
		mod, err := schema.IsModified(rec, "server.tls.cert")
		require.NoError(t, err)
		require.False(t, mod)
	})

	t.Run("whole-record set and clear", func(t *testing.T) {
		require.NoError(t, schema.SetModified(rec, "", true))
		sec, err := schema.Save(rec, false)
		require.NoError(t, err)
		require.Equal(t, 7, sec.Len())

		require.NoError(t, schema.SetModified(rec, "", false))
		mod, err := schema.AnyModified(rec)
		require.NoError(t, err)
		require.False(t, mod)
	})

	t.Run("marking one field", func(t *testing.T) {
		require.NoError(t, schema.SetModified(rec, "name", true))
		sec, err := schema.Save(rec, false)
		require.NoError(t, err)
		require.Equal(t, []string{"name"}, sec.Keys())
	})
}

type elemChild struct {
	schema.Flags
	ID int `strata:"id"`
}

type elemParent struct {
	schema.Flags
	Children []elemChild          `strata:"children"`
	ByName   map[string]elemChild `strata:"byname"`
}

func TestCollections_OfNestedRecords(t *testing.T) {
	rec := &elemParent{
		Children: []elemChild{{ID: 1}, {ID: 2}},
		ByName:   map[string]elemChild{"a": {ID: 3}},
	}

	sec, err := schema.Save(rec, true)
	require.NoError(t, err)
	out, err := strata.Marshal(sec)
	require.NoError(t, err)
	back, err := strata.Parse(out)
	require.NoError(t, err)

	dst := &elemParent{}
	require.NoError(t, schema.Load(dst, back))
	require.Len(t, dst.Children, 2)
	require.Equal(t, 1, dst.Children[0].ID)
	require.Equal(t, 2, dst.Children[1].ID)
	require.Equal(t, 3, dst.ByName["a"].ID)
}
