// Package endian selects the byte order used for the fixed-width fields of a
// compressed log stream.
//
// The stream itself carries no byte-order marker. Producers historically wrote
// host-native integers, which on every deployed target was little-endian, so
// minlog decodes little-endian unless told otherwise:
//
//	engine := endian.GetLittleEndianEngine()
//	r := stream.NewReader(src, engine)
//
// Streams captured on a big-endian host are decoded by selecting the big-endian
// engine explicitly, or by name from configuration:
//
//	engine, err := endian.ParseByteOrder("big")
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine values are immutable.
package endian

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian, so readers use
// the ByteOrder half and test stream builders use the append half.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness determines the host's byte order.
func CheckEndianness() EndianEngine {
	var i uint16 = 0x0100

	// First byte at the lowest address is 0x01 only on big-endian hosts.
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsLittleEndian reports whether engine decodes least-significant byte first.
func IsLittleEndian(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine, the wire default.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ParseByteOrder maps a configuration value to an engine.
//
// Accepted names are "little" (also "le", the empty string), "big" ("be") and
// "native", which resolves to the host byte order at call time.
func ParseByteOrder(name string) (EndianEngine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "big-endian":
		return binary.BigEndian, nil
	case "native", "host":
		return CheckEndianness(), nil
	default:
		return nil, fmt.Errorf("unknown byte order %q (want little, big or native)", name)
	}
}

// Name returns the configuration name of engine.
func Name(engine EndianEngine) string {
	if IsLittleEndian(engine) {
		return "little"
	}

	return "big"
}
