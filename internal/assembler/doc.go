// Package assembler reconstructs delimiter-terminated records from a stream
// delivered in arbitrary fragments.
//
// Feeding a byte stream in one call or split into any sequence of chunks
// yields the same ordered records. Unterminated trailing bytes are retained
// until a later feed completes them.
package assembler
