// Package espertest provides a loopback fake ESPER endpoint for exercising
// pkg/esper's Client and Namespace without real hardware, in the spirit of
// pkg/api/api0/api0testutil's shared conformance helpers.
package espertest

import (
	"encoding/binary"
	"net"

	"github.com/esper-tool/esper/pkg/esper"
)

// Handler answers one decoded request with a response message type and
// payload.
type Handler func(req *esper.Request) (esper.MessageType, []byte)

// Device is a fake ESPER endpoint bound to a loopback UDP socket.
type Device struct {
	conn    *net.UDPConn
	addr    *net.UDPAddr
	handler Handler
}

// New starts a Device on an ephemeral loopback port, answering every request
// with handler.
func New(handler Handler) (*Device, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		return nil, err
	}
	d := &Device{
		conn:    conn,
		addr:    conn.LocalAddr().(*net.UDPAddr),
		handler: handler,
	}
	go d.serve()
	return d, nil
}

func (d *Device) serve() {
	buf := make([]byte, 1500)
	for {
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return // closed
		}
		req, err := esper.ParseRequest(buf[:n])
		if err != nil {
			continue
		}
		msgType, payload := d.handler(req)
		resp := &esper.Response{MsgID: req.MsgID, MsgType: msgType, Payload: payload}
		out, err := resp.Marshal()
		if err != nil {
			continue
		}
		d.conn.WriteToUDP(out, addr)
	}
}

// IP returns the loopback address the device is bound to.
func (d *Device) IP() string { return d.addr.IP.String() }

// Port returns the ephemeral port the device is bound to.
func (d *Device) Port() int { return d.addr.Port }

// Close stops the device's receive loop.
func (d *Device) Close() error { return d.conn.Close() }

// ErrorPayload encodes code as the 4-byte i32 payload of an
// esper.MsgError response.
func ErrorPayload(code esper.EndpointErrorCode) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(int32(code)))
	return buf
}

// Echo is a Handler that answers every request with its own payload and
// message type, for round-trip/ping-style tests.
func Echo(req *esper.Request) (esper.MessageType, []byte) {
	return req.MsgType, req.Payload
}
