// Package packet encodes and decodes the 17-byte ABX order record.
//
//	offset  len  field
//	0       4    symbol, printable ASCII, space padded
//	4       1    side, 'B' or 'S'
//	5       4    quantity, int32 big-endian, >= 0
//	9       4    price, int32 big-endian, >= 0
//	13      4    sequence, int32 big-endian, >= 1
package packet
