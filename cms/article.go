package cms

import "github.com/goliatone/go-collection-cache/model"

// Article is a published text.
type Article struct {
	*model.Base

	Title    map[string]string
	Status   string
	Position int
}

func newArticle(b *model.Base) *Article {
	return &Article{Base: b}
}

// Published reports whether the article is visible to visitors.
func (a *Article) Published() bool {
	return a.Status == "published"
}

var articleSetters = model.Setters[*Article]{
	"title": func(a *Article, v any) (err error) {
		a.Title, err = model.AsTranslations(v)
		return err
	},
	"status": func(a *Article, v any) (err error) {
		a.Status, err = model.AsString(v)
		return err
	},
	"position": func(a *Article, v any) (err error) {
		a.Position, err = model.AsInt(v)
		return err
	},
}
