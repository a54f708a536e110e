package marshal

import (
	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
)

// Memory map of the ffi module.
const (
	NullGuard  uint32 = 16
	StartSlot  uint32 = 16
	EndSlot    uint32 = 48
	SlotStride uint32 = 32
	HeapBase   uint32 = 1024
)

// Load copies the record at ptr out of memory.
func Load(mem strokebridge.Memory, ptr uint32, path ...string) (layout.PointRecord, error) {
	if err := check(mem, ptr, path); err != nil {
		return layout.PointRecord{}, err
	}
	data, err := mem.Read(ptr, layout.RecordSize)
	if err != nil {
		return layout.PointRecord{}, outOfBounds(mem, path, ptr)
	}
	return layout.Decode(data)
}

// Store writes p at ptr.
func Store(mem strokebridge.Memory, ptr uint32, p layout.PointRecord, path ...string) error {
	if err := check(mem, ptr, path); err != nil {
		return err
	}
	buf := layout.Encode(p)
	if err := mem.Write(ptr, buf[:]); err != nil {
		return outOfBounds(mem, path, ptr)
	}
	return nil
}

// WriteKeyframes stores start and end in their reserved slots and returns
// the addresses handed to the script.
func WriteKeyframes(mem strokebridge.Memory, start, end layout.PointRecord) (startPtr, endPtr uint32, err error) {
	if err := Store(mem, StartSlot, start, "start"); err != nil {
		return 0, 0, err
	}
	if err := Store(mem, EndSlot, end, "end"); err != nil {
		return 0, 0, err
	}
	return StartSlot, EndSlot, nil
}

func check(mem strokebridge.Memory, ptr uint32, path []string) error {
	if mem == nil {
		return errors.NotInitialized(errors.PhaseMarshal, "memory")
	}
	if ptr < NullGuard {
		return errors.NilPointer(errors.PhaseMarshal, path)
	}
	return nil
}

func outOfBounds(mem strokebridge.Memory, path []string, ptr uint32) error {
	var limit uint32
	if s, ok := mem.(strokebridge.MemorySizer); ok {
		limit = s.Size()
	}
	return errors.OutOfBounds(errors.PhaseMarshal, path, ptr, layout.RecordSize, limit)
}
