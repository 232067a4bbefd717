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

package hostcall

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/probechain/pvm/internal/xhash"
	"github.com/probechain/pvm/vm"
)

// Host call ids the reference mutator understands. Per this module's
// resolution of the ECALLI-with-ell-zero open question, an ECALLI
// whose operand decodes to HostCallID 0 dispatches HostIsAuthorized —
// the PVM's pure is-authorized protocol has exactly one host call.
const (
	HostIsAuthorized uint64 = 0
	HostYield        uint64 = 1
	HostWrite        uint64 = 2
	HostRead         uint64 = 3
)

// RefMutator is a reference Mutator used only by this module's own
// tests to exercise the ECALLI bridge end to end — not business logic
// for either the is-authorized or accumulate protocols. It backs its
// key/value provisions with an in-memory goleveldb instance, the same
// storage engine the teacher's node uses for its persistent state.
type RefMutator struct {
	*Mutator
	db    *leveldb.DB
	im    *Implications
	authd bool
}

// NewRefMutator builds a RefMutator whose host calls read and write
// im, backed by an in-memory LevelDB instance.
func NewRefMutator(im *Implications) (*RefMutator, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	r := &RefMutator{Mutator: NewMutator(), db: db, im: im, authd: true}
	r.Register(HostIsAuthorized, isAuthorizedHandler{r})
	r.Register(HostYield, yieldHandler{r})
	r.Register(HostWrite, writeHandler{r})
	r.Register(HostRead, readHandler{r})
	return r, nil
}

// Close releases the backing LevelDB instance.
func (r *RefMutator) Close() error { return r.db.Close() }

// SetAuthorized controls what HostIsAuthorized reports, for tests that
// need to exercise the rejected path.
func (r *RefMutator) SetAuthorized(ok bool) { r.authd = ok }

type isAuthorizedHandler struct{ r *RefMutator }

func (isAuthorizedHandler) RequiredGas(*vm.VM) int64 { return 10 }

func (h isAuthorizedHandler) Call(m *vm.VM) error {
	if h.r.authd {
		m.Regs[0] = 1
	} else {
		m.Regs[0] = 0
	}
	return nil
}

// yieldHandler hashes the memory region [Regs[0], Regs[0]+Regs[1]) and
// both records the digest on Implications.YieldHash and writes it back
// into memory at Regs[2], mirroring the teacher's dilithiumVerify
// precompile's use of a keyed hash over caller-supplied input.
type yieldHandler struct{ r *RefMutator }

func (yieldHandler) RequiredGas(*vm.VM) int64 { return 200 }

func (h yieldHandler) Call(m *vm.VM) error {
	addr, size, out := m.Regs[0], m.Regs[1], m.Regs[2]
	data, err := m.Mem.Read(addr, size)
	if err != nil {
		return err
	}
	digest := xhash.Keccak256(data)
	h.r.im.YieldHash = digest
	return m.Mem.Write(out, digest[:])
}

// writeHandler persists a key/value pair from memory into both the
// LevelDB store and the Implications provisions map. It leaves the
// registers unchanged, so a following HostRead can reuse the key
// address/length still held in Regs[0]/Regs[1].
type writeHandler struct{ r *RefMutator }

func (writeHandler) RequiredGas(*vm.VM) int64 { return 50 }

func (h writeHandler) Call(m *vm.VM) error {
	keyAddr, keyLen := m.Regs[0], m.Regs[1]
	valAddr, valLen := m.Regs[2], m.Regs[3]
	key, err := m.Mem.Read(keyAddr, keyLen)
	if err != nil {
		return err
	}
	val, err := m.Mem.Read(valAddr, valLen)
	if err != nil {
		return err
	}
	if err := h.r.db.Put(key, val, nil); err != nil {
		return err
	}
	h.r.im.Provisions[string(key)] = append([]byte(nil), val...)
	return nil
}

// readHandler looks up a key and writes its value into memory at
// dstAddr, reporting the value's length in Regs[0] (0 if absent).
type readHandler struct{ r *RefMutator }

func (readHandler) RequiredGas(*vm.VM) int64 { return 50 }

func (h readHandler) Call(m *vm.VM) error {
	keyAddr, keyLen, dstAddr := m.Regs[0], m.Regs[1], m.Regs[2]
	key, err := m.Mem.Read(keyAddr, keyLen)
	if err != nil {
		return err
	}
	val, err := h.r.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		m.Regs[0] = 0
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.Mem.Write(dstAddr, val); err != nil {
		return err
	}
	m.Regs[0] = uint64(len(val))
	return nil
}
