// Package httpcache is a response cache middleware.
//
// A request is eligible when its method is allowed, its path matches an
// included pattern and no excluded pattern, and, when query parameters are
// left after removing the ignored ones, that remaining query string matches
// an included query pattern and no excluded one. Patterns are regular
// expressions; "*" matches everything and an empty list matches nothing.
//
// Eligible requests are looked up under
//
//	request/<METHOD>/<xxhash of path?remaining-query>
//
// where the remaining query is encoded with sorted keys. Hits are served from
// the store; misses run the wrapped handler and store the response when its
// status code is allowed. Store failures are logged and the request proceeds
// uncached. Concurrent misses for one key may all run the handler; the last
// write wins.
//
//	cfg, err := httpcache.ParseConfig([]byte(`{"ttl": 3600, "ignored_query": "utm_source"}`))
//	mw, err := httpcache.New(store, cfg, httpcache.WithLogger(logger))
//	router.Use(mw.Handler)
package httpcache
