// Package serverrun exposes the Run entrypoint used by the CLI to start the
// ringlog runtime with its TCP, HTTP, gRPC and metrics listeners, handling
// lifecycle and shutdown.
//
// Example:
//
//	cfg := config.Default()
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
