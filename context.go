// This file is part of and64hook project, available at https://github.com/feicong/and64hook
// Copyright (c) 2024-2026 Ilya Caramishev. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at https://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package and64hook

// pendingPatch is a deferred back-patch: a previously emitted instruction
// word at `site` that must have the displacement to this slot's final
// emittedAt OR'd into it once that slot is visited.
type pendingPatch struct {
	site   uintptr
	lshift uint
	mask   uint32
}

type relocSlot struct {
	emittedAt uintptr
	pending   []pendingPatch
}

// relocContext is the Relocation Context of spec section 3: it tracks the
// source window's address range, one slot per source instruction, and the
// forward-reference patch table. It replaces the usual two-pass assembler:
// the patch site, not the target, is what gets stored, and resolution
// happens monotonically as slots are emitted left to right.
//
// A relocContext is used for exactly one Emit call and then discarded; it
// carries no state across invocations.
type relocContext struct {
	basep uintptr
	endp  uintptr
	slots []relocSlot
}

func newRelocContext(basep uintptr, n int) *relocContext {
	slots := make([]relocSlot, n)
	for i := range slots {
		slots[i].pending = make([]pendingPatch, 0, 2*n)
	}
	return &relocContext{
		basep: basep,
		endp:  basep + uintptr(n)*wordSize,
		slots: slots,
	}
}

// inWindow reports whether addr targets one of the displaced source
// instructions.
func (c *relocContext) inWindow(addr uintptr) bool {
	return addr >= c.basep && addr < c.endp
}

func (c *relocContext) slotIndex(addr uintptr) int {
	return int((addr - c.basep) / wordSize)
}

func (c *relocContext) recordEmission(idx int, addr uintptr) {
	c.slots[idx].emittedAt = addr
}

// addPending records a patch site for a forward intra-window reference.
func (c *relocContext) addPending(targetIdx int, p pendingPatch) error {
	s := &c.slots[targetIdx]
	if len(s.pending) == cap(s.pending) {
		return ErrPatchOverflow
	}
	s.pending = append(s.pending, p)
	return nil
}

// resolvePending processes slot[idx].pending now that its emittedAt is
// final: for each pending patch, compute the displacement from the patch
// site to emittedAt and OR it into the already-emitted word at that site.
func (c *relocContext) resolvePending(idx int, buf *wordBuffer) {
	s := &c.slots[idx]
	for _, p := range s.pending {
		wordIdx := int((p.site - buf.base) / wordSize)
		disp := (int64(s.emittedAt) - int64(p.site)) >> 2
		buf.words[wordIdx] |= (uint32(disp) << p.lshift) & p.mask
	}
	s.pending = s.pending[:0]
}
