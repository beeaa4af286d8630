package kernel

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

func TestInitializeBuildsExpectedFrame(t *testing.T) {
	task := newTask(3, DefaultStackSize)
	task.Initialize(func() {})

	if got, want := task.Offset(), uint32(DefaultStackSize-FrameSize); got != want {
		t.Fatalf("Offset() = %d, want %d", got, want)
	}

	top := task.stack[len(task.stack)-WordSize:]
	if got := binary.LittleEndian.Uint32(top); got != EntryAddr(3) {
		t.Fatalf("top word = %#x, want entry %#x", got, EntryAddr(3))
	}
	below := task.stack[len(task.stack)-2*WordSize:]
	if got := binary.LittleEndian.Uint32(below); got != GuardAddr {
		t.Fatalf("word below top = %#x, want guard %#x", got, GuardAddr)
	}

	f := task.Frame()
	for i, r := range f.R {
		if r != 0 {
			t.Fatalf("r%d = %#x, want 0", i, r)
		}
	}
	if f.PC != EntryAddr(3) || f.LR != GuardAddr {
		t.Fatalf("Frame() pc=%#x lr=%#x", f.PC, f.LR)
	}
}

func TestInitializeZeroesReusedStack(t *testing.T) {
	task := newTask(1, 256)
	for i := range task.stack {
		task.stack[i] = 0xAA
	}
	task.Initialize(func() {})

	for i, b := range task.stack[:len(task.stack)-FrameSize] {
		if b != 0 {
			t.Fatalf("stack[%d] = %#x after Initialize, want 0", i, b)
		}
	}
	if task.gen != 1 {
		t.Fatalf("gen = %d, want 1", task.gen)
	}
}

func TestSPIsBasePlusLengthMinusFrame(t *testing.T) {
	task := newTask(2, 512)
	task.Initialize(func() {})

	base := uintptr(unsafe.Pointer(&task.stack[0]))
	if got, want := task.SP(), base+512-SavedRegisters*WordSize; got != want {
		t.Fatalf("SP() = %#x, want %#x", got, want)
	}
	if got := task.SP() - base; got != uintptr(task.Offset()) {
		t.Fatalf("SP()-base = %d, want offset %d", got, task.Offset())
	}
}

func TestSPSurvivesStackRelocation(t *testing.T) {
	task := newTask(2, 512)
	task.Initialize(func() {})
	before := task.Frame()

	moved := make([]byte, len(task.stack))
	copy(moved, task.stack)
	task.stack = moved

	if got := task.Frame(); got != before {
		t.Fatalf("Frame() after relocation = %+v, want %+v", got, before)
	}
	base := uintptr(unsafe.Pointer(&moved[0]))
	if task.SP()-base != uintptr(task.Offset()) {
		t.Fatal("SP() does not follow the relocated stack")
	}
}

func TestSaveWritesResumeFrame(t *testing.T) {
	task := newTask(4, 256)
	task.Initialize(func() {})
	task.save()

	f := task.Frame()
	if f.PC != ResumeAddr {
		t.Fatalf("pc = %#x, want resume %#x", f.PC, ResumeAddr)
	}
	if f.LR != GuardAddr {
		t.Fatalf("lr = %#x, want guard %#x", f.LR, GuardAddr)
	}
}
