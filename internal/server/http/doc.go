// Package httpserver provides the JSON admin API for a ringlog device, with
// an SSE tail of newly appended records.
//
// Routes:
//
//	GET  /v1/healthz
//	GET  /v1/log/stats
//	GET  /v1/log/records?filter=<cel>&limit=N
//	GET  /v1/log/read?offset=N&limit=N
//	GET  /v1/log/seek?record=N&offset=N
//	POST /v1/log/write
//	GET  /v1/log/tail?from=earliest&filter=<cel>
//	GET  /v1/archive?limit=N
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
