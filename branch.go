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

const branchImmMask = 0x03FFFFFF

// rewriteBranch implements the Immediate-Branch Rewriter of spec 4.2 for
// B and BL.
func (e *Emitter) rewriteBranch(idx int, ins uint32, srcAddr uintptr) (bool, error) {
	opc := ins & 0xFC000000
	if opc != opB && opc != opBL {
		return false, nil
	}

	off := signExtend(ins&branchImmMask, 26) * 4
	absTarget := uintptr(int64(srcAddr) + off)
	cursor := e.buf.cursor()

	if e.ctx.inWindow(absTarget) {
		wordDisp, err := e.resolveIntraWindow(idx, absTarget, cursor, 0, branchImmMask)
		if err != nil {
			return false, err
		}
		e.buf.emit(opc | (uint32(wordDisp) & branchImmMask))
		return true, nil
	}

	newDisp := (int64(absTarget) - int64(cursor)) >> 2
	if fitsField(newDisp, 26) {
		e.buf.emit(opc | (uint32(newDisp) & branchImmMask))
		return true, nil
	}

	if opc == opB {
		e.buf.padForAlign(2, 8)
		e.ctx.recordEmission(idx, e.buf.cursor())
		e.buf.emit(ldrX17_8)
		e.buf.emit(brX17)
		e.buf.emitAddr(uint64(absTarget))
		return true, nil
	}

	// BL: the literal sits at cursor+12, so the alignment condition is
	// inverted relative to B, and ADR X30 preserves call semantics by
	// setting the link register to the instruction past the literal.
	e.buf.padForAlign(3, 8)
	e.ctx.recordEmission(idx, e.buf.cursor())
	e.buf.emit(ldrX17_12)
	e.buf.emit(adrX30_16)
	e.buf.emit(brX17)
	e.buf.emitAddr(uint64(absTarget))
	return true, nil
}

// resolveIntraWindow computes the word displacement for an intra-window
// reference from cursor (the site about to be emitted) to absTarget,
// either immediately (backward reference) or by registering a pending
// patch (forward reference, displacement provisionally zero).
func (e *Emitter) resolveIntraWindow(fromIdx int, absTarget, cursor uintptr, lshift uint, mask uint32) (int64, error) {
	targetIdx := e.ctx.slotIndex(absTarget)
	if targetIdx <= fromIdx {
		return (int64(e.ctx.slots[targetIdx].emittedAt) - int64(cursor)) >> 2, nil
	}
	if err := e.ctx.addPending(targetIdx, pendingPatch{site: cursor, lshift: lshift, mask: mask}); err != nil {
		return 0, err
	}
	return 0, nil
}
