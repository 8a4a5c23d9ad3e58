package cms

import (
	"fmt"
	"time"

	"github.com/goliatone/go-collection-cache/model"
)

// Event is a dated happening.
type Event struct {
	*model.Base

	Title    map[string]string
	Location string
	StartsAt time.Time
	Position int
}

func newEvent(b *model.Base) *Event {
	return &Event{Base: b}
}

var eventSetters = model.Setters[*Event]{
	"title": func(e *Event, v any) (err error) {
		e.Title, err = model.AsTranslations(v)
		return err
	},
	"location": func(e *Event, v any) (err error) {
		e.Location, err = model.AsString(v)
		return err
	},
	"startsAt": func(e *Event, v any) (err error) {
		e.StartsAt, err = asTime(v)
		return err
	},
	"position": func(e *Event, v any) (err error) {
		e.Position, err = model.AsInt(v)
		return err
	},
}

// timeLayouts are the encodings drivers use for timestamp columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	}

	s, err := model.AsString(v)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
