package esper

import (
	"errors"
	"fmt"
)

// Link-layer errors, produced locally by framing, the correlator, or the
// transport. These are distinct from endpoint errors (LinkError below),
// which are reported by the remote device.
var (
	ErrBadHeaderCRC     = errors.New("esper: bad header crc")
	ErrBadPayloadCRC    = errors.New("esper: bad payload crc")
	ErrBadResponseLen   = errors.New("esper: bad response length")
	ErrBadMessageType   = errors.New("esper: mismatched response message type")
	ErrMismatchedReqRep = errors.New("esper: mismatched request/response")
	ErrPayloadTooLarge  = errors.New("esper: payload too large for one datagram")
	ErrTimeout          = errors.New("esper: timed out waiting for response")
	ErrConnectionRefused = errors.New("esper: connection refused")
)

// EndpointErrorCode is a signed endpoint-reported error code, carried as the
// leading i32 of an error response's payload (§3, §4.3).
type EndpointErrorCode int32

// Endpoint error codes (§3).
const (
	ErrCodeInternal            EndpointErrorCode = -1
	ErrCodeOutOfRange          EndpointErrorCode = -2
	ErrCodeValidation          EndpointErrorCode = -3
	ErrCodeUserValidation      EndpointErrorCode = -4
	ErrCodeLocked              EndpointErrorCode = -5
	ErrCodeReadOnly            EndpointErrorCode = -6
	ErrCodeWriteOnly           EndpointErrorCode = -7
	ErrCodeNotFound            EndpointErrorCode = -8
	ErrCodeWrongType           EndpointErrorCode = -9
	ErrCodeInsufficientBuffer  EndpointErrorCode = -10
	ErrCodeTooManyElements     EndpointErrorCode = -11

	ErrCodeLinkInternal      EndpointErrorCode = -64
	ErrCodeLinkRuntMessage   EndpointErrorCode = -65
	ErrCodeLinkBadHeaderCRC  EndpointErrorCode = -66
	ErrCodeLinkBadVersion    EndpointErrorCode = -67
	ErrCodeLinkBadMsgType    EndpointErrorCode = -68
	ErrCodeLinkBadAuthToken  EndpointErrorCode = -69
	ErrCodeLinkBadPayloadLen EndpointErrorCode = -70
	ErrCodeLinkBadPayloadCRC EndpointErrorCode = -71
	ErrCodeLinkMismatchedReqRep EndpointErrorCode = -72
	ErrCodeLinkBadResponseLen   EndpointErrorCode = -73
)

var endpointErrorStrings = map[EndpointErrorCode]string{
	1:  "ok (no response)",
	0:  "ok",
	ErrCodeInternal:           "internal error",
	ErrCodeOutOfRange:         "out of range",
	ErrCodeValidation:         "validation failed",
	ErrCodeUserValidation:     "user func validation failed",
	ErrCodeLocked:             "resource locked",
	ErrCodeReadOnly:           "resource is read-only",
	ErrCodeWriteOnly:          "resource is write-only",
	ErrCodeNotFound:           "resource id not found",
	ErrCodeWrongType:          "wrong var type",
	ErrCodeInsufficientBuffer: "insufficient buffer size",
	ErrCodeTooManyElements:    "exceeded max elements for resource",

	ErrCodeLinkInternal:         "internal",
	ErrCodeLinkRuntMessage:      "runt message",
	ErrCodeLinkBadHeaderCRC:     "bad header crc",
	ErrCodeLinkBadVersion:       "bad udp version",
	ErrCodeLinkBadMsgType:       "bad message type",
	ErrCodeLinkBadAuthToken:     "bad auth token",
	ErrCodeLinkBadPayloadLen:    "bad payload len",
	ErrCodeLinkBadPayloadCRC:    "bad payload crc",
	ErrCodeLinkMismatchedReqRep: "mismatched request/response",
	ErrCodeLinkBadResponseLen:   "bad response length",
}

// String returns the human-readable meaning of c, or "unknown" if c isn't in
// the defined taxonomy.
func (c EndpointErrorCode) String() string {
	if s, ok := endpointErrorStrings[c]; ok {
		return s
	}
	return "unknown"
}

// LinkError wraps an error code reported by the remote endpoint in an
// msg_type==error response (§3, §4.3, §7).
type LinkError struct {
	Code EndpointErrorCode
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("esper: endpoint error %d: %s", e.Code, e.Code)
}

// AsLinkError reports whether err is (or wraps) a *LinkError, returning it if
// so.
func AsLinkError(err error) (*LinkError, bool) {
	var le *LinkError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
