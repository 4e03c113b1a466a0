package rpn

import (
	"encoding/binary"
	"fmt"
)

// ParamSlots is the number of 64-bit parameter slots a DS def reserves for
// a COMPUTE program (matches rrdfile.DSDef.Par's length).
const ParamSlots = 10

const (
	bytesPerSlot = 8
	bytesPerNode = 3
	totalBytes   = ParamSlots * bytesPerSlot
	// MaxNodes is the largest program (including the terminating END) that
	// fits in the compact encoding: floor(80/3) = 26.
	MaxNodes = totalBytes / bytesPerNode
)

// CompactEncode packs prog into ten 64-bit slots as a sequence of 3-byte
// {op, val} records terminated by OpEnd. It fails with
// [ErrProgramTooLarge] if prog plus its terminator would not fit.
func CompactEncode(prog Program) ([ParamSlots]uint64, error) {
	var out [ParamSlots]uint64

	if len(prog)+1 > MaxNodes {
		return out, fmt.Errorf("%w: %d nodes (max %d excluding END)", ErrProgramTooLarge, len(prog), MaxNodes-1)
	}

	buf := make([]byte, totalBytes)

	off := 0
	for _, n := range prog {
		buf[off] = byte(n.Op)
		binary.LittleEndian.PutUint16(buf[off+1:off+3], uint16(n.Val))
		off += bytesPerNode
	}

	buf[off] = byte(OpEnd)
	binary.LittleEndian.PutUint16(buf[off+1:off+3], 0)

	for i := 0; i < ParamSlots; i++ {
		out[i] = binary.LittleEndian.Uint64(buf[i*bytesPerSlot : (i+1)*bytesPerSlot])
	}

	return out, nil
}

// CompactDecode unpacks a program previously packed by [CompactEncode],
// stopping at the first OpEnd record (not included in the returned
// Program).
func CompactDecode(slots [ParamSlots]uint64) (Program, error) {
	buf := make([]byte, totalBytes)

	for i := 0; i < ParamSlots; i++ {
		binary.LittleEndian.PutUint64(buf[i*bytesPerSlot:(i+1)*bytesPerSlot], slots[i])
	}

	var prog Program

	for off := 0; off+bytesPerNode <= totalBytes; off += bytesPerNode {
		op := Op(buf[off])
		if op == OpEnd {
			return prog, nil
		}

		val := int16(binary.LittleEndian.Uint16(buf[off+1 : off+3]))
		prog = append(prog, Node{Op: op, Val: val})
	}

	return nil, fmt.Errorf("%w: missing END terminator", ErrSyntax)
}
