package esper

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	headerSize       = 12 // version(1) + msg_type(1) + msg_id(2) + options(4) + payload_len(4)
	headerCRCSize    = 4
	authTokenSize    = 8
	payloadCRCSize   = 4
	payloadAlignment = 8

	// minResponseSize is the smallest a valid incoming datagram can be:
	// header + header crc + payload crc, with a zero-length payload (§4.1).
	minResponseSize = headerSize + headerCRCSize + payloadCRCSize
)

// Request is an immutable, fully-built outgoing datagram (§3). Construct one
// with NewRequest.
type Request struct {
	MsgID     uint16
	MsgType   MessageType
	Options   uint32
	Payload   []byte
	AuthToken *uint64 // nil means NO_AUTH_TOKEN is set regardless of Options
}

// NewRequest builds a Request, setting OptionNoAuthToken automatically when
// authToken is nil (§3).
func NewRequest(msgID uint16, msgType MessageType, options uint32, payload []byte, authToken *uint64) *Request {
	if authToken == nil {
		options |= OptionNoAuthToken
	}
	return &Request{
		MsgID:     msgID,
		MsgType:   msgType,
		Options:   options,
		Payload:   payload,
		AuthToken: authToken,
	}
}

// paddedLen rounds n up to the next multiple of payloadAlignment.
func paddedLen(n int) int {
	if r := n % payloadAlignment; r != 0 {
		return n + (payloadAlignment - r)
	}
	return n
}

// Marshal builds the wire bytes for r per §4.1: header, optional auth token,
// padded payload, then payload CRC.
func (r *Request) Marshal() ([]byte, error) {
	if len(r.Payload) > 1472 {
		return nil, ErrPayloadTooLarge
	}

	hasAuth := r.Options&OptionNoAuthToken == 0
	padded := paddedLen(len(r.Payload))

	total := headerSize + headerCRCSize
	if hasAuth {
		total += authTokenSize
	}
	total += padded + payloadCRCSize

	buf := make([]byte, total)

	buf[0] = protocolVersion
	buf[1] = byte(r.MsgType)
	binary.LittleEndian.PutUint16(buf[2:4], r.MsgID)
	binary.LittleEndian.PutUint32(buf[4:8], r.Options)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(r.Payload)))

	headerCRC := crc32.ChecksumIEEE(buf[0:headerSize])
	binary.LittleEndian.PutUint32(buf[headerSize:headerSize+headerCRCSize], headerCRC)

	off := headerSize + headerCRCSize
	if hasAuth {
		if r.AuthToken == nil {
			return nil, fmt.Errorf("esper: framing: auth required but no token set")
		}
		binary.LittleEndian.PutUint64(buf[off:off+authTokenSize], *r.AuthToken)
		off += authTokenSize
	}

	payloadOff := off
	copy(buf[payloadOff:], r.Payload)
	// remaining padded bytes are already zero from make([]byte, ...)

	payloadCRC := crc32.ChecksumIEEE(buf[payloadOff : payloadOff+padded])
	binary.LittleEndian.PutUint32(buf[payloadOff+padded:], payloadCRC)

	return buf, nil
}

// ParseRequest validates and decodes b as an incoming request datagram,
// mirroring ParseResponse but also accounting for the optional auth token
// (§4.1). It exists for the benefit of fake-endpoint test harnesses
// (pkg/esper/espertest); the client itself never parses requests.
func ParseRequest(b []byte) (*Request, error) {
	if len(b) < minResponseSize {
		return nil, ErrBadResponseLen
	}

	computedHeaderCRC := crc32.ChecksumIEEE(b[0:headerSize])
	storedHeaderCRC := binary.LittleEndian.Uint32(b[headerSize : headerSize+headerCRCSize])
	if computedHeaderCRC != storedHeaderCRC {
		return nil, ErrBadHeaderCRC
	}

	msgType := MessageType(b[1])
	msgID := binary.LittleEndian.Uint16(b[2:4])
	options := binary.LittleEndian.Uint32(b[4:8])
	payloadLen := binary.LittleEndian.Uint32(b[8:12])

	off := headerSize + headerCRCSize
	var authToken *uint64
	if options&OptionNoAuthToken == 0 {
		if len(b) < off+authTokenSize {
			return nil, ErrBadResponseLen
		}
		tok := binary.LittleEndian.Uint64(b[off : off+authTokenSize])
		authToken = &tok
		off += authTokenSize
	}

	if len(b) < off+payloadCRCSize {
		return nil, ErrBadResponseLen
	}
	payloadRegion := b[off : len(b)-payloadCRCSize]
	computedPayloadCRC := crc32.ChecksumIEEE(payloadRegion)
	storedPayloadCRC := binary.LittleEndian.Uint32(b[len(b)-payloadCRCSize:])
	if computedPayloadCRC != storedPayloadCRC {
		return nil, ErrBadPayloadCRC
	}
	if uint64(len(payloadRegion)) < uint64(payloadLen) {
		return nil, ErrBadResponseLen
	}

	return &Request{
		MsgID:     msgID,
		MsgType:   msgType,
		Options:   options,
		Payload:   payloadRegion[:payloadLen],
		AuthToken: authToken,
	}, nil
}

// Response is a parsed incoming datagram (§3). Responses never carry an auth
// token.
type Response struct {
	Version    uint8
	MsgType    MessageType
	MsgID      uint16
	Options    uint32
	PayloadLen uint32
	HeaderCRC  uint32
	PayloadCRC uint32
	Payload    []byte
}

// ParseResponse validates and decodes b as an incoming ESPER datagram per
// §4.1, returning the link-layer error on any CRC or length mismatch.
func ParseResponse(b []byte) (*Response, error) {
	if len(b) < minResponseSize {
		return nil, ErrBadResponseLen
	}

	computedHeaderCRC := crc32.ChecksumIEEE(b[0:headerSize])
	storedHeaderCRC := binary.LittleEndian.Uint32(b[headerSize : headerSize+headerCRCSize])
	if computedHeaderCRC != storedHeaderCRC {
		return nil, ErrBadHeaderCRC
	}

	payloadRegion := b[headerSize+headerCRCSize : len(b)-payloadCRCSize]
	computedPayloadCRC := crc32.ChecksumIEEE(payloadRegion)
	storedPayloadCRC := binary.LittleEndian.Uint32(b[len(b)-payloadCRCSize:])
	if computedPayloadCRC != storedPayloadCRC {
		return nil, ErrBadPayloadCRC
	}

	payloadLen := binary.LittleEndian.Uint32(b[8:12])
	if uint64(len(payloadRegion)) < uint64(payloadLen) {
		return nil, ErrBadResponseLen
	}

	return &Response{
		Version:    b[0],
		MsgType:    MessageType(b[1]),
		MsgID:      binary.LittleEndian.Uint16(b[2:4]),
		Options:    binary.LittleEndian.Uint32(b[4:8]),
		PayloadLen: payloadLen,
		HeaderCRC:  storedHeaderCRC,
		PayloadCRC: storedPayloadCRC,
		Payload:    payloadRegion[:payloadLen],
	}, nil
}

// Marshal builds the wire bytes for a response datagram, mirroring
// Request.Marshal but never emitting an auth token (§4.1). Used by
// pkg/esper/espertest's fake endpoint.
func (r *Response) Marshal() ([]byte, error) {
	if len(r.Payload) > 1472 {
		return nil, ErrPayloadTooLarge
	}
	padded := paddedLen(len(r.Payload))
	total := headerSize + headerCRCSize + padded + payloadCRCSize

	buf := make([]byte, total)
	buf[0] = protocolVersion
	buf[1] = byte(r.MsgType)
	binary.LittleEndian.PutUint16(buf[2:4], r.MsgID)
	binary.LittleEndian.PutUint32(buf[4:8], r.Options)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(r.Payload)))

	headerCRC := crc32.ChecksumIEEE(buf[0:headerSize])
	binary.LittleEndian.PutUint32(buf[headerSize:headerSize+headerCRCSize], headerCRC)

	payloadOff := headerSize + headerCRCSize
	copy(buf[payloadOff:], r.Payload)

	payloadCRC := crc32.ChecksumIEEE(buf[payloadOff : payloadOff+padded])
	binary.LittleEndian.PutUint32(buf[payloadOff+padded:], payloadCRC)

	return buf, nil
}
