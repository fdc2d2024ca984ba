// Package session speaks the ABX request/response protocol.
//
// A request is two bytes, [call type, parameter]:
//   - [1, 0] streams every packet; the server closes the connection after
//     the last 17-byte record.
//   - [2, seq] resends the single packet with sequence seq. The sequence is
//     sent as one byte, so only sequences 0-255 can be addressed.
//
// Every request uses a fresh TCP connection. There is no keep-alive and no
// pipelining.
package session
