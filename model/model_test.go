package model

import (
	"testing"

	"github.com/goliatone/go-collection-cache/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	*Base
	Title    map[string]string
	Position int
}

var articleSetters = Setters[*article]{
	"title": func(a *article, v any) (err error) {
		a.Title, err = AsTranslations(v)
		return err
	},
	"position": func(a *article, v any) (err error) {
		a.Position, err = AsInt(v)
		return err
	},
}

func articleMeta() Metadata {
	return Metadata{
		Properties: []Property{
			NewProperty("id"),
			NewLocalizedProperty("title", "en", "fr"),
			NewColumnProperty("position", "sort_order"),
			NewProperty("status"),
		},
	}
}

func newArticle(b *Base) *article { return &article{Base: b} }

func newFactory(t *testing.T) *Factory {
	t.Helper()
	f := NewFactory(nil)
	require.NoError(t, Register(f, "", articleMeta(), newArticle, articleSetters))
	return f
}

func TestRegister_DerivesTypeAndTable(t *testing.T) {
	f := newFactory(t)

	assert.Equal(t, []string{"model/article"}, f.Types())

	meta, ok := f.Metadata("model/article")
	require.True(t, ok)
	assert.Equal(t, "articles", meta.Table)
	assert.Equal(t, "id", meta.KeyColumn())
	assert.Equal(t, []string{"id", "title_en", "title_fr", "sort_order", "status"}, meta.Columns())
}

func TestRegister_Errors(t *testing.T) {
	f := newFactory(t)

	err := Register(f, "model/article", articleMeta(), newArticle, articleSetters)
	assert.ErrorIs(t, err, ErrDuplicateType)

	bad := Setters[*article]{"missing": func(*article, any) error { return nil }}
	err = Register(f, "other", articleMeta(), newArticle, bad)
	var unknown *UnknownPropertyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Property)

	err = Register(f, "nokey", Metadata{Properties: []Property{NewProperty("title")}}, newArticle, nil)
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "Metadata.Key", cfg.Field)

	err = Register[*article](f, "noctor", articleMeta(), nil, nil)
	assert.ErrorAs(t, err, &cfg)
}

func TestFactory_CreateUnknownType(t *testing.T) {
	_, err := newFactory(t).Create("nope")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestFactory_CreateUsesProvider(t *testing.T) {
	var seen *Metadata
	f := NewFactory(func(meta *Metadata) source.Source {
		seen = meta
		return source.NewDatabase(nil, meta.Table)
	})
	require.NoError(t, Register(f, "article", articleMeta(), newArticle, articleSetters))

	m, err := f.Create("article")
	require.NoError(t, err)
	require.NotNil(t, m.Source())
	assert.Equal(t, "articles", m.Source().Table())
	assert.Same(t, m.Metadata(), seen)
}

func TestBase_SetDataDispatchesTypedSetters(t *testing.T) {
	m, err := newFactory(t).Create("model/article")
	require.NoError(t, err)

	require.NoError(t, m.SetData(map[string]any{
		"id":       7,
		"position": "12",
		"status":   []byte("draft"),
	}))

	a := m.(*article)
	assert.Equal(t, 12, a.Position)
	assert.Equal(t, 7, m.ID())

	v, ok := m.Value("status")
	require.True(t, ok)
	assert.Equal(t, "draft", v)
}

func TestBase_SetDataRejectsUnknownProperty(t *testing.T) {
	m, _ := newFactory(t).Create("model/article")

	err := m.SetData(map[string]any{"bogus": 1})
	var unknown *UnknownPropertyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus", unknown.Property)
	assert.Equal(t, "model/article", unknown.ObjType)
}

func TestBase_SetterErrorIsWrapped(t *testing.T) {
	m, _ := newFactory(t).Create("model/article")

	err := m.SetData(map[string]any{"position": "twelve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set position")
}

func TestBase_SetFlatData(t *testing.T) {
	m, _ := newFactory(t).Create("model/article")

	require.NoError(t, m.SetFlatData(source.Row{
		"id":         int64(3),
		"title_en":   "Hello",
		"title_fr":   []byte("Bonjour"),
		"sort_order": int64(5),
	}))

	a := m.(*article)
	assert.Equal(t, map[string]string{"en": "Hello", "fr": "Bonjour"}, a.Title)
	assert.Equal(t, 5, a.Position)
	assert.Equal(t, int64(3), m.ID())

	_, ok := m.Value("status")
	assert.False(t, ok)
}

func TestBase_SetFlatDataSingleLanguage(t *testing.T) {
	f := NewFactory(nil)
	meta := Metadata{
		Table: "briefs",
		Properties: []Property{
			NewProperty("id"),
			NewLocalizedProperty("title", "en"),
		},
	}
	require.NoError(t, Register(f, "brief", meta, newArticle, Setters[*article]{"title": articleSetters["title"]}))

	assert.True(t, meta.Properties[1].Multi())
	assert.False(t, meta.Properties[0].Multi())

	m, err := f.Create("brief")
	require.NoError(t, err)
	require.NoError(t, m.SetFlatData(source.Row{"id": 1, "title_en": "Hello"}))

	v, ok := m.Value("title")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"en": "Hello"}, v)
	assert.Equal(t, map[string]string{"en": "Hello"}, m.(*article).Title)
}

func TestBase_SetFlatDataRejectsUnmappedColumn(t *testing.T) {
	m, _ := newFactory(t).Create("model/article")

	err := m.SetFlatData(source.Row{"id": 1, "legacy": "x"})
	var unknown *UnknownPropertyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "legacy", unknown.Property)
}

func TestBase_DataIsCopy(t *testing.T) {
	m, _ := newFactory(t).Create("model/article")
	require.NoError(t, m.SetData(map[string]any{"id": 1}))

	d := m.Data()
	d["id"] = 99
	assert.Equal(t, 1, m.ID())
}

func TestMetadata_Validate(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
	}{
		{"no table", Metadata{Properties: []Property{NewProperty("id")}}},
		{"no properties", Metadata{Table: "t"}},
		{"duplicate ident", Metadata{Table: "t", Properties: []Property{NewProperty("id"), NewProperty("id")}}},
		{"duplicate field", Metadata{Table: "t", Properties: []Property{NewProperty("id"), NewColumnProperty("other", "id")}}},
		{"multi key", Metadata{Table: "t", Key: "title", Properties: []Property{NewLocalizedProperty("title", "en", "fr")}}},
		{"empty field", Metadata{Table: "t", Properties: []Property{NewProperty("id"), {Ident: "x", Fields: []Field{{}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			var cfg *ConfigError
			assert.ErrorAs(t, err, &cfg)
		})
	}

	ok := Metadata{Table: "t", Properties: []Property{NewProperty("id")}}
	assert.NoError(t, ok.Validate())
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"Article":          "article",
		"CalendarEvent":    "calendar_event",
		"HTTPCache":        "http_cache",
		"Item2":            "item_2",
		"Repo[main.Thing]": "repo_main_thing",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnake(in), in)
	}
}

func TestCollection(t *testing.T) {
	f := newFactory(t)
	c := NewCollection()
	for i := 1; i <= 3; i++ {
		m, _ := f.Create("model/article")
		require.NoError(t, m.SetData(map[string]any{"id": int64(i)}))
		c.Add(m)
	}

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, c.IDs())

	m, ok := c.Get("2")
	require.True(t, ok)
	assert.Same(t, c.At(1), m)

	_, ok = c.Get(9)
	assert.False(t, ok)
	assert.Nil(t, c.At(5))
}

func TestConversions(t *testing.T) {
	n, err := AsInt(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = AsInt(struct{}{})
	assert.Error(t, err)

	b, err := AsBool(int64(1))
	require.NoError(t, err)
	assert.True(t, b)

	s, err := AsString(12)
	require.NoError(t, err)
	assert.Equal(t, "12", s)

	_, err = AsTranslations(3)
	assert.Error(t, err)
}
