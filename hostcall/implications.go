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

// Implications is the partial-state record a host call mutates: the
// parts of the broader accumulate/is-authorized protocols that live
// outside the VM's own registers and memory (§7). A completed
// accumulate invocation produces a Regular/Exceptional pair — which
// one the invocation wrapper keeps depends on whether it terminated
// normally or via Panic/Fault/OutOfGas (collapsed to Panic per this
// module's Open-Questions resolution).
type Implications struct {
	ServiceID         uint32
	NextFreeID        uint32
	DeferredTransfers [][]byte
	YieldHash         [32]byte
	Provisions        map[string][]byte
	StateSnapshot     []byte
}

// Pair bundles the regular and exceptional Implications an accumulate
// invocation may produce; exactly one is kept by the caller depending
// on how the invocation terminated.
type Pair struct {
	Regular     *Implications
	Exceptional *Implications
}

// NewImplications returns an empty Implications record with its map
// initialized.
func NewImplications(serviceID uint32) *Implications {
	return &Implications{
		ServiceID:  serviceID,
		NextFreeID: serviceID + 1,
		Provisions: make(map[string][]byte),
	}
}

// Clone returns a deep-enough copy of im suitable for seeding the
// Exceptional half of a Pair before any host call has mutated it, so
// that failed host calls cannot retroactively affect the Regular path
// or vice versa.
func (im *Implications) Clone() *Implications {
	c := &Implications{
		ServiceID:     im.ServiceID,
		NextFreeID:    im.NextFreeID,
		YieldHash:     im.YieldHash,
		StateSnapshot: append([]byte(nil), im.StateSnapshot...),
		Provisions:    make(map[string][]byte, len(im.Provisions)),
	}
	for _, t := range im.DeferredTransfers {
		c.DeferredTransfers = append(c.DeferredTransfers, append([]byte(nil), t...))
	}
	for k, v := range im.Provisions {
		c.Provisions[k] = append([]byte(nil), v...)
	}
	return c
}
