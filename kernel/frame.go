package kernel

import "encoding/binary"

const (
	// WordSize is the width of a saved register on the target (32-bit ARM).
	WordSize = 4

	// SavedRegisters is the number of words in a saved frame: r0-r12, lr, pc.
	SavedRegisters = 15

	// FrameSize is the number of bytes a suspended task keeps on its stack.
	FrameSize = SavedRegisters * WordSize

	DefaultStackSize = 0x1000
	DefaultMaxTasks  = 8

	// MaxTasksLimit bounds the task table.
	MaxTasksLimit = 32
)

const (
	regLR = 13
	regPC = 14
)

// Code addresses written into frames. They stand for routines rather than
// machine addresses; the switcher decodes them when it restores a frame.
const (
	GuardAddr  uint32 = 0xFFFF_0001
	ResumeAddr uint32 = 0xFFFF_0002

	entryBase uint32 = 0x8000_0000
)

// EntryAddr is the address of the entry trampoline of slot id.
func EntryAddr(id TaskID) uint32 {
	return entryBase | uint32(id)
}

// Frame is the register block saved at a task's stack pointer, in the order
// the restore sequence pops it (lowest address first).
type Frame struct {
	R  [13]uint32
	LR uint32
	PC uint32
}

func readFrame(b []byte) Frame {
	var f Frame
	if len(b) < FrameSize {
		return f
	}
	for i := range f.R {
		f.R[i] = binary.LittleEndian.Uint32(b[i*WordSize:])
	}
	f.LR = binary.LittleEndian.Uint32(b[regLR*WordSize:])
	f.PC = binary.LittleEndian.Uint32(b[regPC*WordSize:])
	return f
}

func (f Frame) put(b []byte) {
	if len(b) < FrameSize {
		return
	}
	for i, r := range f.R {
		binary.LittleEndian.PutUint32(b[i*WordSize:], r)
	}
	binary.LittleEndian.PutUint32(b[regLR*WordSize:], f.LR)
	binary.LittleEndian.PutUint32(b[regPC*WordSize:], f.PC)
}
