package esper

import (
	"encoding/binary"
	"testing"
)

func TestCorrelatorAllocateIncrements(t *testing.T) {
	c := &correlator{nextID: 5}
	if got := c.allocate(); got != 5 {
		t.Errorf("first allocate = %d, want 5", got)
	}
	if got := c.allocate(); got != 6 {
		t.Errorf("second allocate = %d, want 6", got)
	}
}

func TestCorrelatorAllocateWraps(t *testing.T) {
	c := &correlator{nextID: 0xFFFF}
	if got := c.allocate(); got != 0xFFFF {
		t.Fatalf("allocate = %d, want 0xFFFF", got)
	}
	if got := c.allocate(); got != 0 {
		t.Errorf("allocate after wrap = %d, want 0", got)
	}
}

func TestMatchDifferentMsgID(t *testing.T) {
	req := &Request{MsgID: 1, MsgType: MsgPing}
	resp := &Response{MsgID: 2, MsgType: MsgPing}

	matched, mine, err := match(req, resp)
	if matched != nil || mine || err != nil {
		t.Errorf("match = (%v, %v, %v), want (nil, false, nil)", matched, mine, err)
	}
}

func TestMatchErrorResponse(t *testing.T) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(int32(ErrCodeNotFound)))

	req := &Request{MsgID: 9, MsgType: MsgVarRead}
	resp := &Response{MsgID: 9, MsgType: MsgError, Payload: payload}

	matched, mine, err := match(req, resp)
	if matched != nil || !mine {
		t.Fatalf("match = (%v, %v, %v)", matched, mine, err)
	}
	le, ok := AsLinkError(err)
	if !ok {
		t.Fatalf("expected *LinkError, got %v", err)
	}
	if le.Code != ErrCodeNotFound {
		t.Errorf("Code = %d, want %d", le.Code, ErrCodeNotFound)
	}
}

func TestMatchMismatchedMsgType(t *testing.T) {
	req := &Request{MsgID: 3, MsgType: MsgVarRead}
	resp := &Response{MsgID: 3, MsgType: MsgVarWrite}

	matched, mine, err := match(req, resp)
	if matched != nil || !mine || err != ErrBadMessageType {
		t.Errorf("match = (%v, %v, %v), want (nil, true, ErrBadMessageType)", matched, mine, err)
	}
}

func TestMatchSuccess(t *testing.T) {
	req := &Request{MsgID: 7, MsgType: MsgPing}
	resp := &Response{MsgID: 7, MsgType: MsgPing, Payload: []byte("pong")}

	matched, mine, err := match(req, resp)
	if err != nil || !mine || matched != resp {
		t.Errorf("match = (%v, %v, %v), want (resp, true, nil)", matched, mine, err)
	}
}
