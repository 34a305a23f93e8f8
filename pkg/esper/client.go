package esper

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// defaultCallTimeout bounds a single call's full send/retry/receive cycle
// (§4.2) when the caller hasn't set one explicitly.
const defaultCallTimeout = 2 * time.Second

// Client is a connected ESPER endpoint. It owns one UDP socket and allows
// exactly one outstanding call at a time (§5); a Client is not safe for
// concurrent use from multiple goroutines.
type Client struct {
	conn      *transport
	cor       *correlator
	metrics   *clientMetrics
	logger    zerolog.Logger
	timeout   time.Duration
	authToken *uint64
}

// ClientOption configures a Client at Dial time.
type ClientOption func(*Client)

// WithLogger sets the logger a Client reports call lifecycle events to.
// Defaults to zerolog.Nop().
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithCallTimeout sets the per-call deadline. Defaults to
// defaultCallTimeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// SetTimeout changes the per-call deadline for subsequent calls, letting an
// interactive session (cmd/esper-tool's console) adjust it without
// redialing.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// WithAuthToken sets the shared-secret token sent with every request;
// omitting this option sends OptionNoAuthToken instead (§3).
func WithAuthToken(token uint64) ClientOption {
	return func(c *Client) { c.authToken = &token }
}

// Dial opens a UDP socket to ip:port and returns a ready Client.
func Dial(ip string, port int, opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger:  zerolog.Nop(),
		timeout: defaultCallTimeout,
		metrics: newClientMetrics(),
		cor:     newCorrelator(),
	}
	for _, opt := range opts {
		opt(c)
	}

	t, err := dialTransport(ip, port, c.logger, c.metrics)
	if err != nil {
		return nil, fmt.Errorf("esper: dial: %w", err)
	}
	c.conn = t
	return c, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call allocates a msg_id, tags the attempt with a correlation id for
// logging, and performs the round trip (§4.2, §4.3).
func (c *Client) call(msgType MessageType, payload []byte) (*Response, error) {
	callID := xid.New().String()
	msgID := c.cor.allocate()
	req := NewRequest(msgID, msgType, 0, payload, c.authToken)

	c.logger.Debug().
		Str("call_id", callID).
		Str("msg_type", msgType.String()).
		Uint16("msg_id", msgID).
		Msg("esper: call started")

	resp, err := c.conn.roundTrip(req, c.timeout)
	if err != nil {
		c.logger.Debug().Str("call_id", callID).Err(err).Msg("esper: call failed")
		return nil, err
	}
	c.logger.Debug().Str("call_id", callID).Msg("esper: call completed")
	return resp, nil
}

// Ping sends payload to the endpoint and returns whatever it echoes back
// (§4.6).
func (c *Client) Ping(payload []byte) ([]byte, error) {
	resp, err := c.call(MsgPing, payload)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

func putPathPayload(path string) []byte {
	return append([]byte(path), 0)
}

func parseID(resp *Response) (uint32, error) {
	if len(resp.Payload) < 4 {
		return 0, ErrBadResponseLen
	}
	return binary.LittleEndian.Uint32(resp.Payload[:4]), nil
}

// GetVarID resolves a slash-separated path to a variable id (§4.6, §4.7).
func (c *Client) GetVarID(path string) (uint32, error) {
	resp, err := c.call(MsgVarPath, putPathPayload(path))
	if err != nil {
		return 0, err
	}
	return parseID(resp)
}

// GetGroupID resolves a slash-separated path to a group id (§4.6, §4.7).
func (c *Client) GetGroupID(path string) (uint32, error) {
	resp, err := c.call(MsgGroupPath, putPathPayload(path))
	if err != nil {
		return 0, err
	}
	return parseID(resp)
}

// ReadVarInfo fetches the VariableInfo record for vid (§4.6).
func (c *Client) ReadVarInfo(vid, options uint32) (*VariableInfo, error) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], vid)
	binary.LittleEndian.PutUint32(payload[4:8], options)

	resp, err := c.call(MsgVarInfo, payload)
	if err != nil {
		return nil, err
	}
	return parseVariableInfo(resp.Payload)
}

// ReadGroupInfo fetches the GroupInfo record for gid (§4.6).
func (c *Client) ReadGroupInfo(gid, options uint32) (*GroupInfo, error) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], gid)
	binary.LittleEndian.PutUint32(payload[4:8], options)

	resp, err := c.call(MsgGroupInfo, payload)
	if err != nil {
		return nil, err
	}
	return parseGroupInfo(resp.Payload)
}

// ReadEndpointInfo fetches the endpoint's identity and capability record
// (§4.6).
func (c *Client) ReadEndpointInfo(options uint32) (*EndpointInfo, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload[0:4], options)

	resp, err := c.call(MsgEndpointInfo, payload)
	if err != nil {
		return nil, err
	}
	return parseEndpointInfo(resp.Payload)
}

const varInfoSize = 4 + 4 + 32 + 4 + 4 + 4 + 4 + 4 + 1 + 1

func parseVariableInfo(b []byte) (*VariableInfo, error) {
	if len(b) < varInfoSize {
		return nil, ErrBadResponseLen
	}
	off := 0
	vid := binary.LittleEndian.Uint32(b[off:])
	off += 4
	gid := binary.LittleEndian.Uint32(b[off:])
	off += 4
	key := trimASCII(b[off : off+32])
	off += 32
	ts := binary.LittleEndian.Uint32(b[off:])
	off += 4
	wc := binary.LittleEndian.Uint32(b[off:])
	off += 4
	typ := VariableType(binary.LittleEndian.Uint32(b[off:]))
	off += 4
	numElements := binary.LittleEndian.Uint32(b[off:])
	off += 4
	maxPerReq := binary.LittleEndian.Uint32(b[off:])
	off += 4
	option := VarOption(b[off])
	off++
	status := VarStatus(b[off])

	return &VariableInfo{
		VID: vid, GID: gid, Key: key, TS: ts, WC: wc, Type: typ,
		NumElements: numElements, MaxElementsPerRequest: maxPerReq,
		Option: option, Status: status,
	}, nil
}

const groupInfoSize = 4 + 4 + 32 + 4 + 4 + 4 + 4 + 1 + 1

func parseGroupInfo(b []byte) (*GroupInfo, error) {
	if len(b) < groupInfoSize {
		return nil, ErrBadResponseLen
	}
	off := 0
	gid := binary.LittleEndian.Uint32(b[off:])
	off += 4
	pid := binary.LittleEndian.Uint32(b[off:])
	off += 4
	key := trimASCII(b[off : off+32])
	off += 32
	numVars := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numGroups := binary.LittleEndian.Uint32(b[off:])
	off += 4
	ts := binary.LittleEndian.Uint32(b[off:])
	off += 4
	wc := binary.LittleEndian.Uint32(b[off:])
	off += 4
	option := VarOption(b[off])
	off++
	status := VarStatus(b[off])

	return &GroupInfo{
		GID: gid, PID: pid, Key: key, NumVars: numVars, NumGroups: numGroups,
		TS: ts, WC: wc, Option: option, Status: status,
	}, nil
}

const endpointInfoSize = 128 + 64 + 64 + 32 + 4*11 + 1

func parseEndpointInfo(b []byte) (*EndpointInfo, error) {
	if len(b) < endpointInfoSize {
		return nil, ErrBadResponseLen
	}
	off := 0
	hwid := trimASCII(b[off : off+128])
	off += 128
	devType := trimASCII(b[off : off+64])
	off += 64
	devName := trimASCII(b[off : off+64])
	off += 64
	devRev := trimASCII(b[off : off+32])
	off += 32
	uptime := binary.LittleEndian.Uint32(b[off:])
	off += 4
	tickCount := binary.LittleEndian.Uint32(b[off:])
	off += 4
	deviceID := binary.LittleEndian.Uint32(b[off:])
	off += 4
	logLevel := int32(binary.LittleEndian.Uint32(b[off:]))
	off += 4
	alarmLevel := int32(binary.LittleEndian.Uint32(b[off:]))
	off += 4
	logID := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numModules := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numVars := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numStorableVars := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numGroups := binary.LittleEndian.Uint32(b[off:])
	off += 4
	numAlarms := binary.LittleEndian.Uint32(b[off:])
	off += 4
	apiVersion := b[off]

	return &EndpointInfo{
		HardwareID: hwid, DeviceType: devType, DeviceName: devName, DeviceRev: devRev,
		Uptime: uptime, TickCount: tickCount, DeviceID: deviceID,
		LogLevel: logLevel, AlarmLevel: alarmLevel, LogID: logID,
		NumModules: numModules, NumVars: numVars, NumStorableVars: numStorableVars,
		NumGroups: numGroups, NumAlarms: numAlarms, APIVersion: apiVersion,
	}, nil
}

// varRecordHeaderSize is sizeof(u32 vid, i32 err, u32 offset, u16
// num_elements, u16 type) — the Python original's "<IiIHH" (udp.py:590).
const varRecordHeaderSize = 4 + 4 + 4 + 2 + 2

// VarRecord is one decoded record of a read_var response. A single call can
// yield more than one record; callers must drain all of them (§7 bug-fix
// note: the original client only looked at the first).
type VarRecord struct {
	VID         uint32
	Err         int32
	Offset      uint32
	NumElements uint32
	Type        VariableType
	Data        any
}

// ReadVar reads numElements elements of type typ starting at offset within
// vid (§4.6). The response payload is iterated to completion: an endpoint
// may return more than one record.
func (c *Client) ReadVar(vid, offset, numElements uint32, typ VariableType) ([]VarRecord, error) {
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint32(payload[0:4], 1) // record count requested
	binary.LittleEndian.PutUint32(payload[4:8], 0)  // options
	binary.LittleEndian.PutUint32(payload[8:12], vid)
	binary.LittleEndian.PutUint32(payload[12:16], offset)
	binary.LittleEndian.PutUint32(payload[16:20], numElements)
	binary.LittleEndian.PutUint32(payload[20:24], uint32(typ))

	resp, err := c.call(MsgVarRead, payload)
	if err != nil {
		return nil, err
	}

	var records []VarRecord
	b := resp.Payload
	for len(b) >= varRecordHeaderSize {
		rvid := binary.LittleEndian.Uint32(b[0:4])
		rerr := int32(binary.LittleEndian.Uint32(b[4:8]))
		roffset := binary.LittleEndian.Uint32(b[8:12])
		rnum := uint32(binary.LittleEndian.Uint16(b[12:14]))
		rtype := VariableType(binary.LittleEndian.Uint16(b[14:16]))
		b = b[varRecordHeaderSize:]

		data, err := DecodeElements(rtype, rnum, b)
		if err != nil {
			return records, err
		}

		consumed := int(rtype.TypeSize()) * int(rnum)
		if rtype == TypeASCII {
			consumed = int(rnum)
		}
		if consumed > len(b) {
			consumed = len(b)
		}
		b = b[consumed:]

		records = append(records, VarRecord{
			VID: rvid, Err: rerr, Offset: roffset, NumElements: rnum, Type: rtype, Data: data,
		})
	}
	return records, nil
}

// WriteVar writes values, encoded as typ, to vid starting at offset (§4.6).
func (c *Client) WriteVar(vid, offset uint32, typ VariableType, values []Variant) error {
	data, err := EncodeElements(typ, uint32(len(values)), values)
	if err != nil {
		return err
	}

	payload := make([]byte, 24+len(data))
	binary.LittleEndian.PutUint32(payload[0:4], 1) // record count
	binary.LittleEndian.PutUint32(payload[4:8], 0)  // options
	binary.LittleEndian.PutUint32(payload[8:12], vid)
	binary.LittleEndian.PutUint32(payload[12:16], offset)
	binary.LittleEndian.PutUint32(payload[16:20], uint32(len(values)))
	binary.LittleEndian.PutUint32(payload[20:24], uint32(typ))
	copy(payload[24:], data)

	_, err = c.call(MsgVarWrite, payload)
	return err
}
