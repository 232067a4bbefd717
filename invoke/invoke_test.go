// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package invoke

import (
	"encoding/binary"
	"testing"

	"github.com/probechain/pvm/memory"
	"github.com/probechain/pvm/program"
	"github.com/probechain/pvm/vm"
)

func buildImage(t *testing.T, heapPad uint64, ro, rw []byte, stackSize uint64, jumpTable []uint32, code []byte, mask []bool) []byte {
	t.Helper()
	var b []byte

	u64 := make([]byte, 8)
	binary.LittleEndian.PutUint64(u64, heapPad)
	b = append(b, u64...)

	put24 := func(v uint64) {
		b = append(b, byte(v), byte(v>>8), byte(v>>16))
	}
	put24(uint64(len(ro)))
	put24(uint64(len(rw)))
	put24(stackSize)
	b = append(b, ro...)
	b = append(b, rw...)

	b = append(b, 4) // jump_entry_size = 4 bytes
	cnt := make([]byte, 4)
	binary.LittleEndian.PutUint32(cnt, uint32(len(jumpTable)))
	b = append(b, cnt...)
	for _, e := range jumpTable {
		entry := make([]byte, 4)
		binary.LittleEndian.PutUint32(entry, e)
		b = append(b, entry...)
	}

	codeLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(codeLen, uint32(len(code)))
	b = append(b, codeLen...)
	b = append(b, code...)

	packed := packBits(mask)
	bmLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(bmLen, uint32(len(packed)))
	b = append(b, bmLen...)
	b = append(b, packed...)

	return b
}

func TestParseImageRoundTrip(t *testing.T) {
	code := []byte{byte(program.OpAdd32), 0x21, 0x03}
	mask := []bool{true, false, false}
	img := buildImage(t, 4096, []byte("ro"), []byte("rw"), 8192, []uint32{7, 9}, code, mask)

	layout, err := ParseImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if layout.HeapPad != 4096 {
		t.Errorf("HeapPad = %d, want 4096", layout.HeapPad)
	}
	if string(layout.ROData) != "ro" || string(layout.RWData) != "rw" {
		t.Errorf("RO/RW data mismatch: %q %q", layout.ROData, layout.RWData)
	}
	if len(layout.JumpTable) != 2 || layout.JumpTable[0] != 7 || layout.JumpTable[1] != 9 {
		t.Errorf("JumpTable = %v, want [7 9]", layout.JumpTable)
	}
	if string(layout.Code) != string(code) {
		t.Errorf("Code mismatch: %x vs %x", layout.Code, code)
	}
	for i, want := range mask {
		if layout.Mask[i] != want {
			t.Errorf("Mask[%d] = %v, want %v", i, layout.Mask[i], want)
		}
	}
}

func TestParseImageTruncated(t *testing.T) {
	if _, err := ParseImage([]byte{1, 2, 3}); err != ErrTruncatedImage {
		t.Fatalf("err = %v, want ErrTruncatedImage", err)
	}
}

func TestInvokeAddProgramFallsOffEndAndPanics(t *testing.T) {
	// No explicit terminator follows the ADD_32, so execution decodes
	// the implicit TRAP in ζ's zero-padded tail and panics; it never
	// silently halts (§4.6 step 1).
	code := []byte{byte(program.OpAdd32), 0x21, 0x03}
	mask := []bool{true, false, false}
	img := buildImage(t, 4096, nil, nil, 4096, nil, code, mask)

	res, err := Invoke(img, Options{GasLimit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Termination.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic", res.Termination)
	}
	if res.GasConsumed <= 0 {
		t.Error("expected non-zero gas consumption")
	}
}

// instr is one assembled instruction: an opcode byte plus its already
// correctly shaped operand bytes, mirroring vm_test.go's own helper.
type instr struct {
	op      program.Opcode
	operand []byte
}

func asm(instrs []instr) (code []byte, mask []bool) {
	for _, in := range instrs {
		mask = append(mask, true)
		code = append(code, byte(in.op))
		for range in.operand {
			mask = append(mask, false)
		}
		code = append(code, in.operand...)
	}
	return code, mask
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestInvokeHaltExtractsResultBlob(t *testing.T) {
	// r7/r8 <- the address/length of a result blob (here, the image's
	// own RO region, which invoke.buildMemory maps at GuardZoneEnd);
	// r0 <- the JUMP_IND halt sentinel. §4.7 item 4: on Halt, the
	// wrapper reads the blob at r7/r8 and surfaces it as Output.
	const roBase = memory.GuardZoneEnd
	const haltAddr = uint32(1<<32 - 1<<16)
	roData := []byte("RESULT!!")

	addImm64 := func(dst uint8, imm uint32) instr {
		regByte := byte(dst) << 4 // RegA=0 (source), RegB=dst
		return instr{program.OpAddImm64, append([]byte{regByte}, le32(imm)...)}
	}

	code, mask := asm([]instr{
		addImm64(7, roBase),
		addImm64(8, uint32(len(roData))),
		addImm64(0, haltAddr),
		{program.OpJumpInd, []byte{0x00, 0x00}},
	})
	img := buildImage(t, 4096, roData, nil, 4096, nil, code, mask)

	res, err := Invoke(img, Options{GasLimit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Termination.Kind != vm.Halt {
		t.Fatalf("termination = %v, want Halt", res.Termination)
	}
	if string(res.Output) != string(roData) {
		t.Errorf("Output = %q, want %q", res.Output, roData)
	}
}

func TestInvokeOutOfGasOnTightBudget(t *testing.T) {
	code := []byte{byte(program.OpAdd32), 0x21, 0x03}
	mask := []bool{true, false, false}
	img := buildImage(t, 4096, nil, nil, 4096, nil, code, mask)

	res, err := Invoke(img, Options{GasLimit: 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Termination.Kind != vm.OutOfGas {
		t.Fatalf("termination = %v, want OutOfGas", res.Termination)
	}
}

func TestInvokeCachesParsedProgramAcrossCalls(t *testing.T) {
	code := []byte{byte(program.OpTrap)}
	mask := []bool{true}
	img := buildImage(t, 4096, nil, nil, 4096, nil, code, mask)

	if _, err := Invoke(img, Options{GasLimit: 1000}); err != nil {
		t.Fatal(err)
	}
	// Second call with the identical image bytes should hit the cache
	// path without error.
	res, err := Invoke(img, Options{GasLimit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Termination.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic (TRAP)", res.Termination)
	}
}
