// Package runtime wires configuration, the ring log device, the optional
// release archive and metrics into a single-node ringlog instance.
//
//	cfg := config.Default()
//	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
//	if err != nil { /* handle */ }
//	defer rt.Close(context.Background())
//	_ = rt.Device().Append(ctx, ringlog.NewRecord([]byte("hello\n")))
package runtime
