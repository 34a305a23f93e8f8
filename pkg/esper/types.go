// Package esper implements the client side of the ESPER UDP protocol: wire
// framing with dual CRC32 validation, the 13-variant typed variable codec,
// request/response correlation, discovery broadcast, and the group/variable
// namespace tree that turns flat id-addressed records into a path-addressable
// hierarchy.
package esper

import "strconv"

// VariableType identifies the wire representation of a variable's elements.
type VariableType uint8

const (
	TypeUnknown VariableType = 0
	TypeNull    VariableType = 1
	TypeASCII   VariableType = 2
	TypeBool    VariableType = 3
	TypeUint8   VariableType = 4
	TypeUint16  VariableType = 5
	TypeUint32  VariableType = 6
	TypeUint64  VariableType = 7
	TypeInt8    VariableType = 8
	TypeInt16   VariableType = 9
	TypeInt32   VariableType = 10
	TypeInt64   VariableType = 11
	TypeFloat32 VariableType = 12
	TypeFloat64 VariableType = 13
)

// typeSizes is indexed by VariableType and gives the per-element wire size in
// bytes. ascii and bool are both 1 byte per element; unknown and null carry
// no element data.
var typeSizes = [...]uint32{
	TypeUnknown: 0,
	TypeNull:    0,
	TypeASCII:   1,
	TypeBool:    1,
	TypeUint8:   1,
	TypeUint16:  2,
	TypeUint32:  4,
	TypeUint64:  8,
	TypeInt8:    1,
	TypeInt16:   2,
	TypeInt32:   4,
	TypeInt64:   8,
	TypeFloat32: 4,
	TypeFloat64: 8,
}

var typeNames = [...]string{
	TypeUnknown: "unknown",
	TypeNull:    "null",
	TypeASCII:   "ascii",
	TypeBool:    "bool",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

// TypeSize returns the per-element wire size of t in bytes, or 0 if t is
// unknown, null, or out of range.
func (t VariableType) TypeSize() uint32 {
	if int(t) >= len(typeSizes) {
		return 0
	}
	return typeSizes[t]
}

// String returns the lowercase name of t (e.g. "uint16"), or
// "unknown(<n>)" for values outside the defined range.
func (t VariableType) String() string {
	if int(t) >= len(typeNames) {
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// MessageType identifies the kind of request or response carried by a
// datagram's header.
type MessageType uint8

const (
	MsgDiscover     MessageType = 0x00
	MsgPing         MessageType = 0x01
	MsgVarRead      MessageType = 0x10
	MsgVarWrite     MessageType = 0x11
	MsgVarPath      MessageType = 0x12
	MsgVarInfo      MessageType = 0x13
	MsgGroupInfo    MessageType = 0x14
	MsgGroupPath    MessageType = 0x15
	MsgEndpointInfo MessageType = 0x16
	MsgError        MessageType = 0xFF
)

func (m MessageType) String() string {
	switch m {
	case MsgDiscover:
		return "discover"
	case MsgPing:
		return "ping"
	case MsgVarRead:
		return "var_read"
	case MsgVarWrite:
		return "var_write"
	case MsgVarPath:
		return "var_path"
	case MsgVarInfo:
		return "var_info"
	case MsgGroupInfo:
		return "group_info"
	case MsgGroupPath:
		return "group_path"
	case MsgEndpointInfo:
		return "endpoint_info"
	case MsgError:
		return "error"
	default:
		return "unknown(0x" + strconv.FormatUint(uint64(m), 16) + ")"
	}
}

// Option bits carried in the Request header's options field.
const (
	OptionNoAuthToken uint32 = 0x01
)

// Variable option bitfield (VariableInfo.Option).
const (
	VarOptionReadable VarOption = 0x01
	VarOptionWritable VarOption = 0x02
	VarOptionHidden   VarOption = 0x04
	VarOptionStorable VarOption = 0x08
	VarOptionLockable VarOption = 0x10
	VarOptionWindowed VarOption = 0x20
)

// VarOption is the bitfield of a variable's declared capabilities.
type VarOption uint8

// Has reports whether b is set in o.
func (o VarOption) Has(b VarOption) bool { return o&b != 0 }

// Variable status bitfield (VariableInfo.Status).
const (
	VarStatusLocked    VarStatus = 0x01
	VarStatusStored    VarStatus = 0x02
	VarStatusLogged    VarStatus = 0x04
	VarStatusValidated VarStatus = 0x08
)

// VarStatus is the bitfield of a variable's current runtime state.
type VarStatus uint8

// Has reports whether b is set in s.
func (s VarStatus) Has(b VarStatus) bool { return s&b != 0 }

// Group status bit: temporarily locked.
const GroupStatusLocked VarStatus = 0x01

// Group option bit: hidden.
const GroupOptionHidden VarOption = 0x04

const (
	// DefaultPort is the default ESPER UDP port (wire and discovery).
	DefaultPort = 27500

	// protocolVersion is the only version this client speaks.
	protocolVersion = 0
)
