// Package client provides the `ringlog` command-line client.
//
// The CLI talks to the ringlog HTTP admin API, the TCP line listener and the
// gRPC health service. It is primarily intended for developers and
// operators.
//
// # Address configuration
//
// The HTTP base URL is supplied by the embedding application through a
// BaseURLFunc; the standalone binary defaults to http://127.0.0.1:8080 or
// $RINGLOG_HTTP. The TCP address is read from RINGLOG_SOCKET (default
// 127.0.0.1:9000) and the gRPC address from RINGLOG_GRPC (default
// 127.0.0.1:50051).
//
// Usage
//
//	ringlog log write "hello"
//	printf 'a\nb\n' | ringlog log write
//	ringlog log records --filter 'size > 4' --limit 10
//	ringlog log read --offset 6 --limit 5
//	ringlog log seek --record 1 --offset 2
//	ringlog log stats
//	ringlog log tail --from earliest --filter 'text.startsWith("timestamp:")'
//	ringlog archive --limit 20
//
//	# Raw TCP protocol: append a line, or seek and print from there
//	ringlog send "hello"
//	ringlog send --seek 1,2
//
//	ringlog health
package client
