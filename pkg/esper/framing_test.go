package esper

import (
	"bytes"
	"errors"
	"testing"
)

func TestRequestMarshalParseResponseRoundTrip(t *testing.T) {
	token := uint64(0xDEADBEEFCAFEBABE)
	req := NewRequest(42, MsgVarRead, 0, []byte("hello"), &token)

	buf, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// A response built from the same bytes as if the endpoint echoed back
	// (minus the auth token, which responses never carry).
	resp := &Response{MsgID: req.MsgID, MsgType: req.MsgType, Payload: req.Payload}
	respBuf, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Response.Marshal: %v", err)
	}

	parsed, err := ParseResponse(respBuf)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if parsed.MsgID != req.MsgID {
		t.Errorf("MsgID = %d, want %d", parsed.MsgID, req.MsgID)
	}
	if parsed.MsgType != req.MsgType {
		t.Errorf("MsgType = %v, want %v", parsed.MsgType, req.MsgType)
	}
	if !bytes.Equal(parsed.Payload, req.Payload) {
		t.Errorf("Payload = %q, want %q", parsed.Payload, req.Payload)
	}

	parsedReq, err := ParseRequest(buf)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if parsedReq.MsgID != req.MsgID || parsedReq.MsgType != req.MsgType {
		t.Errorf("ParseRequest = %+v, want msg_id=%d msg_type=%v", parsedReq, req.MsgID, req.MsgType)
	}
	if !bytes.Equal(parsedReq.Payload, req.Payload) {
		t.Errorf("ParseRequest payload = %q, want %q", parsedReq.Payload, req.Payload)
	}
	if parsedReq.AuthToken == nil || *parsedReq.AuthToken != token {
		t.Errorf("ParseRequest auth token = %v, want %d", parsedReq.AuthToken, token)
	}
}

func TestRequestMarshalNoAuthToken(t *testing.T) {
	req := NewRequest(1, MsgPing, 0, []byte("x"), nil)
	buf, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := ParseRequest(buf)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if parsed.AuthToken != nil {
		t.Errorf("AuthToken = %v, want nil", parsed.AuthToken)
	}
	if parsed.Options&OptionNoAuthToken == 0 {
		t.Errorf("expected OptionNoAuthToken set")
	}
}

func TestParseResponseBadHeaderCRC(t *testing.T) {
	resp := &Response{MsgID: 1, MsgType: MsgPing, Payload: []byte("ok")}
	buf, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	buf[0] ^= 0xFF // flip a header byte without fixing the header CRC

	if _, err := ParseResponse(buf); !errors.Is(err, ErrBadHeaderCRC) {
		t.Errorf("ParseResponse = %v, want ErrBadHeaderCRC", err)
	}
}

func TestParseResponseBadPayloadCRC(t *testing.T) {
	resp := &Response{MsgID: 1, MsgType: MsgPing, Payload: []byte("ok")}
	buf, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	buf[len(buf)-payloadCRCSize-1] ^= 0xFF // flip a payload byte, leave CRCs untouched

	if _, err := ParseResponse(buf); !errors.Is(err, ErrBadPayloadCRC) {
		t.Errorf("ParseResponse = %v, want ErrBadPayloadCRC", err)
	}
}

func TestParseResponseTooShort(t *testing.T) {
	if _, err := ParseResponse(make([]byte, 4)); !errors.Is(err, ErrBadResponseLen) {
		t.Errorf("ParseResponse = %v, want ErrBadResponseLen", err)
	}
}

func TestPaddedLenAlignment(t *testing.T) {
	cases := []struct{ n, want int }{
		{0, 0}, {1, 8}, {7, 8}, {8, 8}, {9, 16},
	}
	for _, c := range cases {
		if got := paddedLen(c.n); got != c.want {
			t.Errorf("paddedLen(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestMarshalRejectsOversizedPayload(t *testing.T) {
	req := NewRequest(1, MsgVarWrite, 0, make([]byte, 1473), nil)
	if _, err := req.Marshal(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Marshal = %v, want ErrPayloadTooLarge", err)
	}
}
