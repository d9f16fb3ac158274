// Package mi implements the GDB Machine Interface wire layer: output-record
// parsing and a line-oriented transport over a debugger subprocess.
//
// The parser is deliberately tolerant. MI output is externally produced and
// frequently carries fields this client does not model; records that cannot
// be classified are reported as such rather than failing the stream.
package mi
