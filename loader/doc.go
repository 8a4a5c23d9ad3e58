// Package loader materialises typed model collections from a source.
//
// A Loader binds a model prototype and its source, accumulates the query
// spec through proxy methods, then streams rows from storage. Each row is
// instantiated through the model factory, using the dynamic type field of
// the row when one is configured, hydrated from the flat row, passed to an
// optional Processor and appended to the resulting Collection in storage
// order.
//
// Basic usage:
//
//	l := loader.New(factory, loader.WithDynamicTypeField("obj_type"))
//	if err := l.SetModelType("cms/article"); err != nil {
//		return err
//	}
//	_ = l.AddFilter("status", "published")
//	_ = l.AddOrder("position", query.Asc)
//	_ = l.SetPagination(query.Pagination{Page: 2, PerPage: 10})
//	items, err := l.Load(ctx)
//
// Binding errors (no model, no source, no factory) are returned before any
// query is built. Storage errors are logged and returned; they are never
// reported as an empty collection.
package loader
