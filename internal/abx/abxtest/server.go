// Package abxtest provides a loopback ABX server for tests.
package abxtest

import (
	"io"
	"net"
	"sort"
	"sync"
	"testing"

	"github.com/zsiec/abxclient/internal/abx/packet"
)

// Server answers ABX requests from a fixed order book. By default a
// stream-all request receives every packet in sequence order and a resend
// request receives the packet whose sequence matches the header byte.
type Server struct {
	ln net.Listener
	wg sync.WaitGroup

	mu        sync.Mutex
	book      []packet.Packet
	dropped   map[int32]bool
	streamRaw []byte
	streamSet bool
	resendRaw map[byte][]byte
	requests  [][2]byte
}

// NewServer starts a server on 127.0.0.1 and stops it when t finishes.
func NewServer(t testing.TB, book []packet.Packet) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("abxtest: listen: %v", err)
	}

	sorted := append([]packet.Packet(nil), book...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	s := &Server{
		ln:        ln,
		book:      sorted,
		dropped:   make(map[int32]bool),
		resendRaw: make(map[byte][]byte),
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Drop omits seqs from stream-all responses. Resends still serve them.
func (s *Server) Drop(seqs ...int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range seqs {
		s.dropped[seq] = true
	}
}

// SetStreamRaw replaces the stream-all response with raw bytes.
func (s *Server) SetStreamRaw(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamRaw = append([]byte(nil), b...)
	s.streamSet = true
}

// SetResendRaw replaces the response to the resend header [2, seqByte].
func (s *Server) SetResendRaw(seqByte byte, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resendRaw[seqByte] = append([]byte(nil), b...)
}

// Requests returns every header received so far, in order.
func (s *Server) Requests() [][2]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]byte(nil), s.requests...)
}

// ResendRequests returns the parameter byte of every resend request.
func (s *Server) ResendRequests() []byte {
	var out []byte
	for _, h := range s.Requests() {
		if h[0] == 2 {
			out = append(out, h[1])
		}
	}
	return out
}

// Close stops accepting connections and waits for handlers.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	var header [2]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, header)
	resp := s.response(header)
	s.mu.Unlock()

	_, _ = conn.Write(resp)
}

func (s *Server) response(header [2]byte) []byte {
	switch header[0] {
	case 1:
		if s.streamSet {
			return s.streamRaw
		}
		var out []byte
		for _, p := range s.book {
			if !s.dropped[p.Sequence] {
				out = append(out, packet.MustEncode(p)...)
			}
		}
		return out
	case 2:
		if raw, ok := s.resendRaw[header[1]]; ok {
			return raw
		}
		for _, p := range s.book {
			if byte(p.Sequence) == header[1] {
				return packet.MustEncode(p)
			}
		}
	}
	return nil
}

// Book builds n packets with sequences 1..n.
func Book(n int) []packet.Packet {
	symbols := []string{"MSFT", "AAPL", "AMZN", "META"}
	out := make([]packet.Packet, 0, n)
	for i := 1; i <= n; i++ {
		side := packet.Buy
		if i%2 == 0 {
			side = packet.Sell
		}
		out = append(out, packet.Packet{
			Symbol:   symbols[(i-1)%len(symbols)],
			Side:     side,
			Quantity: int32(10 * i),
			Price:    int32(100 + i),
			Sequence: int32(i),
		})
	}
	return out
}
