// Package pebblestore is a thin wrapper around Pebble with an fsync policy,
// batches, ordered scans and metrics hooks.
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(ctx, b)
//	b.Close()
//	_ = db.Scan(nil, nil, true, 10, func(k, v []byte) bool { return true })
package pebblestore
