package esper

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// echoServer starts a UDP listener that, for each datagram it receives,
// parses it as a request and replies with a Response carrying the same
// msg_id/msg_type/payload, after first replying extraCount times with a
// mismatched msg_id (to exercise the retry loop).
func echoServer(t *testing.T, extraCount int) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, maxDatagramSize)
		sent := 0
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req, err := ParseRequest(buf[:n])
			if err != nil {
				continue
			}

			if sent < extraCount {
				sent++
				bogus := &Response{MsgID: req.MsgID + 1, MsgType: req.MsgType, Payload: req.Payload}
				out, _ := bogus.Marshal()
				conn.WriteToUDP(out, addr)
				continue
			}

			resp := &Response{MsgID: req.MsgID, MsgType: req.MsgType, Payload: req.Payload}
			out, err := resp.Marshal()
			if err != nil {
				continue
			}
			conn.WriteToUDP(out, addr)
		}
	}()

	return conn
}

func dialEcho(t *testing.T, server *net.UDPConn) *transport {
	t.Helper()
	addr := server.LocalAddr().(*net.UDPAddr)
	tr, err := dialTransport(addr.IP.String(), addr.Port, zerolog.Nop(), newClientMetrics())
	if err != nil {
		t.Fatalf("dialTransport: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestTransportRoundTrip(t *testing.T) {
	server := echoServer(t, 0)
	tr := dialEcho(t, server)

	req := NewRequest(1, MsgPing, 0, []byte("hi"), nil)
	resp, err := tr.roundTrip(req, time.Second)
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if string(resp.Payload) != "hi" {
		t.Errorf("Payload = %q, want %q", resp.Payload, "hi")
	}
}

func TestTransportRetriesOnMismatch(t *testing.T) {
	server := echoServer(t, 2) // two bogus replies before the real one
	tr := dialEcho(t, server)

	req := NewRequest(1, MsgPing, 0, []byte("hi"), nil)
	resp, err := tr.roundTrip(req, time.Second)
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if resp.MsgID != req.MsgID {
		t.Errorf("MsgID = %d, want %d", resp.MsgID, req.MsgID)
	}
}

func TestTransportExhaustsRetries(t *testing.T) {
	server := echoServer(t, maxRetries+1) // never gets a matching reply
	tr := dialEcho(t, server)

	req := NewRequest(1, MsgPing, 0, []byte("hi"), nil)
	if _, err := tr.roundTrip(req, 200*time.Millisecond); err != ErrTimeout {
		t.Errorf("roundTrip = %v, want ErrTimeout", err)
	}
}

func TestTransportTimeoutNoResponse(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	tr := dialEcho(t, conn)
	req := NewRequest(1, MsgPing, 0, nil, nil)
	if _, err := tr.roundTrip(req, 100*time.Millisecond); err != ErrTimeout {
		t.Errorf("roundTrip = %v, want ErrTimeout", err)
	}
}
