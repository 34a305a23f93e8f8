package esper

import (
	"encoding/binary"
	"math/rand"
)

// correlator allocates monotonically-increasing msg_ids and matches a
// response to the request that is currently outstanding (§4.3). A client
// owns exactly one outstanding call at a time (§5); this mirrors the
// Python original's single global __msg_id counter rather than
// pkg/nspkt's multi-waiter map, since ESPER has no pipelining.
type correlator struct {
	nextID uint16
}

func newCorrelator() *correlator {
	return &correlator{nextID: uint16(rand.Intn(1 << 16))}
}

// allocate returns the next msg_id, incrementing (and wrapping) the counter.
func (c *correlator) allocate() uint16 {
	id := c.nextID
	c.nextID++
	return id
}

// match pairs resp against req per §4.3:
//   - different msg_id: the response isn't for this call; (nil, false) tells
//     the transport to silently discard it and keep waiting.
//   - matching msg_id, msg_type==error: decode the leading i32 error code and
//     return a *LinkError.
//   - matching msg_id, mismatched msg_type: ErrBadMessageType.
//   - otherwise: resp is the answer.
func match(req *Request, resp *Response) (*Response, bool, error) {
	if req.MsgID != resp.MsgID {
		return nil, false, nil
	}
	if resp.MsgType == MsgError {
		if len(resp.Payload) < 4 {
			return nil, true, &LinkError{Code: EndpointErrorCode(ErrCodeInternal)}
		}
		code := int32(binary.LittleEndian.Uint32(resp.Payload[:4]))
		return nil, true, &LinkError{Code: EndpointErrorCode(code)}
	}
	if req.MsgType != resp.MsgType {
		return nil, true, ErrBadMessageType
	}
	return resp, true, nil
}
