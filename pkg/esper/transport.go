package esper

import (
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// maxDatagramSize is the largest datagram the transport will attempt to
// receive (§4.2).
const maxDatagramSize = 1500

// maxRetries is the number of mismatched-id datagrams the read loop will
// discard before giving up for a single call (§4.2).
const maxRetries = 3

// transport owns one connected UDP socket and performs the send/receive/
// retry dance of a single client call (§4.2, §5). It is not safe for
// concurrent use.
type transport struct {
	conn    *net.UDPConn
	logger  zerolog.Logger
	metrics *clientMetrics
	recvBuf []byte
}

func dialTransport(ip string, port int, logger zerolog.Logger, m *clientMetrics) (*transport, error) {
	raddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, err
	}
	return &transport{
		conn:    conn,
		logger:  logger,
		metrics: m,
		recvBuf: make([]byte, maxDatagramSize),
	}, nil
}

func (t *transport) Close() error {
	return t.conn.Close()
}

func (t *transport) LocalAddr() net.Addr  { return t.conn.LocalAddr() }
func (t *transport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// roundTrip sends req and waits up to timeout for the matching response,
// retrying on id mismatch per §4.2/§4.3.
func (t *transport) roundTrip(req *Request, timeout time.Duration) (*Response, error) {
	buf, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)

	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if _, err := t.conn.Write(buf); err != nil {
		if isConnRefused(err) {
			return nil, ErrConnectionRefused
		}
		return nil, err
	}
	t.metrics.requestsSent(req.MsgType)

	for attempt := 0; attempt < maxRetries; attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.metrics.timeouts(req.MsgType)
			return nil, ErrTimeout
		}
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}

		n, err := t.conn.Read(t.recvBuf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				t.metrics.timeouts(req.MsgType)
				return nil, ErrTimeout
			}
			if isConnRefused(err) {
				return nil, ErrConnectionRefused
			}
			return nil, err
		}

		resp, err := ParseResponse(t.recvBuf[:n])
		if err != nil {
			t.metrics.crcFailures(req.MsgType)
			t.logger.Warn().Err(err).Uint16("msg_id", req.MsgID).Msg("esper: discarding unparseable datagram")
			return nil, err
		}

		matched, mine, err := match(req, resp)
		if !mine {
			t.metrics.mismatches(req.MsgType)
			t.logger.Warn().
				Uint16("want_msg_id", req.MsgID).
				Uint16("got_msg_id", resp.MsgID).
				Msg("esper: discarding mismatched response")
			continue
		}
		if err != nil {
			t.metrics.linkErrors(req.MsgType)
			return nil, err
		}

		t.metrics.responsesReceived(req.MsgType)
		t.logger.Debug().
			Uint16("msg_id", req.MsgID).
			Str("msg_type", req.MsgType.String()).
			Msg("esper: round trip complete")
		return matched, nil
	}

	t.metrics.timeouts(req.MsgType)
	return nil, ErrTimeout
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
