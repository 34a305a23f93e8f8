package esper

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// discoveryPort is the default broadcast port for discovery (§4.5, §6).
const discoveryPort = DefaultPort

// broadcastAddr is the limited broadcast address discovery datagrams are
// sent to (§4.5).
const broadcastAddr = "255.255.255.255"

// DiscoveryFilter narrows a discovery scan to devices matching the given
// fields; zero-value/empty fields are wildcards (§4.5).
type DiscoveryFilter struct {
	DeviceID   *uint32
	DeviceType string
	DeviceName string
	DeviceRev  string
	HardwareID string
	AuthToken  *uint64
}

// DiscoveredDevice is a decoded discovery response (§3, §4.5).
type DiscoveredDevice struct {
	HardwareID string
	Type       string
	Name       string
	Revision   string
	DeviceID   uint32
	Uptime     uint32
	IPv4       net.IP
	Port       uint16
}

func flagByte(set bool) byte {
	if set {
		return 0xFF
	}
	return 0x00
}

// buildDiscoveryPayload builds the var_path-free discovery filter payload
// described in §4.5, matching
// original_source/esper_tool2/esper/udp.py's __build_discovery_request.
func buildDiscoveryPayload(f DiscoveryFilter) []byte {
	buf := make([]byte, 5+3+4+64+1+64+1+32+1+128+1)

	buf[0] = flagByte(f.DeviceID != nil)
	buf[1] = flagByte(f.DeviceType != "")
	buf[2] = flagByte(f.DeviceName != "")
	buf[3] = flagByte(f.DeviceRev != "")
	buf[4] = flagByte(f.HardwareID != "")
	// bytes 5..8 are the 3 pad bytes

	var deviceID uint32
	if f.DeviceID != nil {
		deviceID = *f.DeviceID
	}
	binary.LittleEndian.PutUint32(buf[8:12], deviceID)

	off := 12
	off += copyASCIIField(buf[off:], f.DeviceType, 64)
	off += copyASCIIField(buf[off:], f.DeviceName, 64)
	off += copyASCIIField(buf[off:], f.DeviceRev, 32)
	off += copyASCIIField(buf[off:], f.HardwareID, 128)
	_ = off

	return buf
}

// copyASCIIField copies s into a NUL-padded field of width bytes followed by
// one extra pad byte, returning the number of bytes consumed (width+1).
func copyASCIIField(dst []byte, s string, width int) int {
	copy(dst[:width], s)
	return width + 1
}

func parseDiscoveryResponse(payload []byte) (*DiscoveredDevice, bool) {
	const want = 128 + 64 + 64 + 32 + 4 + 4 + 4 + 16 + 2
	if len(payload) < want {
		return nil, false
	}

	off := 0
	hwid := trimASCII(payload[off : off+128])
	off += 128
	typ := trimASCII(payload[off : off+64])
	off += 64
	name := trimASCII(payload[off : off+64])
	off += 64
	rev := trimASCII(payload[off : off+32])
	off += 32
	deviceID := binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	uptime := binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	ipBytes := payload[off : off+4]
	off += 4
	off += 16 // reserved ipv6 slot
	port := binary.LittleEndian.Uint16(payload[off : off+2])

	return &DiscoveredDevice{
		HardwareID: hwid,
		Type:       typ,
		Name:       name,
		Revision:   rev,
		DeviceID:   deviceID,
		Uptime:     uptime,
		IPv4:       net.IPv4(ipBytes[0], ipBytes[1], ipBytes[2], ipBytes[3]),
		Port:       port,
	}, true
}

// Discover broadcasts a discovery filter datagram on its own short-lived
// broadcast socket and collects responses until deadline elapses (§4.5).
// Malformed or CRC-failed responses are silently dropped; the aggregate
// result is always returned (§7).
func Discover(filter DiscoveryFilter, deadline time.Duration, logger zerolog.Logger) ([]DiscoveredDevice, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := setBroadcast(conn); err != nil {
		return nil, err
	}

	var msgID uint16 = uint16(time.Now().UnixNano())
	req := NewRequest(msgID, MsgDiscover, 0, buildDiscoveryPayload(filter), filter.AuthToken)
	buf, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	dst := &net.UDPAddr{IP: net.ParseIP(broadcastAddr), Port: discoveryPort}
	if _, err := conn.WriteToUDP(buf, dst); err != nil {
		return nil, err
	}

	end := time.Now().Add(deadline)
	recvBuf := make([]byte, maxDatagramSize)

	var found []DiscoveredDevice
	for {
		remaining := time.Until(end)
		if remaining <= 0 {
			break
		}
		if err := conn.SetReadDeadline(end); err != nil {
			return found, err
		}
		n, _, err := conn.ReadFromUDP(recvBuf)
		if err != nil {
			break // deadline exceeded or socket error: scan is over
		}

		resp, err := ParseResponse(recvBuf[:n])
		if err != nil {
			logger.Debug().Err(err).Msg("esper: discarding malformed discovery response")
			continue
		}
		if resp.MsgType == MsgError {
			continue
		}
		dev, ok := parseDiscoveryResponse(resp.Payload)
		if !ok {
			logger.Debug().Msg("esper: discarding short discovery response")
			continue
		}
		found = append(found, *dev)
	}

	return found, nil
}

func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
