// Package archive keeps a durable trail of records released by a device,
// either displaced from a full ring or drained at shutdown.
//
// Entries are stored in Pebble under "released/<seq>" with a CRC-protected
// encoding. The archive is external bookkeeping for the device's release
// hand-off and is never replayed into a ring.
package archive
