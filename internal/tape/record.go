// Package tape records raw gateway wire frames to segment files and
// plays them back, preserving receive timestamps and direction.
package tape

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Direction marks which side of the socket produced a frame.
type Direction uint16

const (
	DirInbound Direction = iota + 1
	DirOutbound
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "in"
	case DirOutbound:
		return "out"
	default:
		return "unknown"
	}
}

// Record is one captured frame.
type Record struct {
	Seq       uint64
	Direction Direction
	// TsRecv is the capture time in nanoseconds since the epoch.
	TsRecv int64
	// Payload holds the frame body without the length prefix.
	Payload []byte
}

const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 32
	recordChecksumSize        = 4
)

const maxPayloadLen = uint64(^uint32(0))

var (
	recordMagic = [4]byte{'T', 'A', 'P', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic            = errors.New("tape invalid magic")
	ErrUnsupportedRecordVer    = errors.New("tape unsupported record version")
	ErrInvalidRecordHeaderSize = errors.New("tape invalid header size")
)

func encodeHeader(dst []byte, rec Record, payloadLen int) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(rec.Direction))
	binary.LittleEndian.PutUint16(dst[10:12], 0)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[16:24], rec.Seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(rec.TsRecv))
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

func decodeRecordHeader(src []byte) (Record, uint32, error) {
	if len(src) < recordHeaderSize {
		return Record{}, 0, ErrInvalidRecordHeaderSize
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return Record{}, 0, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return Record{}, 0, ErrUnsupportedRecordVer
	}
	if headerSize := binary.LittleEndian.Uint16(src[6:8]); headerSize != recordHeaderSize {
		return Record{}, 0, ErrInvalidRecordHeaderSize
	}
	rec := Record{
		Direction: Direction(binary.LittleEndian.Uint16(src[8:10])),
		Seq:       binary.LittleEndian.Uint64(src[16:24]),
		TsRecv:    int64(binary.LittleEndian.Uint64(src[24:32])),
	}
	payloadLen := binary.LittleEndian.Uint32(src[12:16])
	return rec, payloadLen, nil
}
