// Package tcpserver serves a ring log device over a line-oriented TCP
// protocol.
//
// Every newline-terminated line a client sends is appended to the device as
// one record, after which the full log contents are written back. A line of
// the form "AESDCHAR_IOCSEEKTO:X,Y" is not stored; it resolves byte Y of
// live record X and answers with the log contents from that position.
// Fragments are reassembled per connection, and unterminated bytes are
// dropped when the connection closes.
package tcpserver
