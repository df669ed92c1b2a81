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

import "math/bits"

const condLSB = 5

// immFieldFor returns the immediate field mask (aligned at its real bit
// position) for a conditional/compare/test branch, and whether ins is one
// of them. B.cond and CBZ/CBNZ share a 19-bit field at bits[23:5]; TBZ/TBNZ
// use a 14-bit field at bits[18:5].
func immFieldFor(ins uint32) (mask uint32, ok bool) {
	switch {
	case ins&0xFF000010 == 0x54000000: // B.cond
		return 0x00FFFFE0, true
	case ins&0x7F000000 == 0x34000000, ins&0x7F000000 == 0x35000000: // CBZ/CBNZ
		return 0x00FFFFE0, true
	case ins&0x7F000000 == 0x36000000, ins&0x7F000000 == 0x37000000: // TBZ/TBNZ
		return 0x0007FFE0, true
	default:
		return 0, false
	}
}

// rewriteCondBranch implements the Conditional / Compare / Test Branch
// Rewriter of spec 4.3.
func (e *Emitter) rewriteCondBranch(idx int, ins uint32, srcAddr uintptr) (bool, error) {
	immMask, ok := immFieldFor(ins)
	if !ok {
		return false, nil
	}
	fieldWidth := uint(bits.OnesCount32(immMask))
	preserveMask := ^immMask

	raw := (ins & immMask) >> condLSB
	off := signExtend(raw, fieldWidth) * 4
	absTarget := uintptr(int64(srcAddr) + off)
	cursor := e.buf.cursor()

	if e.ctx.inWindow(absTarget) {
		wordDisp, err := e.resolveIntraWindow(idx, absTarget, cursor, condLSB, immMask)
		if err != nil {
			return false, err
		}
		e.buf.emit((ins & preserveMask) | ((uint32(wordDisp) << condLSB) & immMask))
		return true, nil
	}

	newDisp := (int64(absTarget) - int64(cursor)) >> 2
	if fitsField(newDisp, fieldWidth) {
		e.buf.emit((ins & preserveMask) | ((uint32(newDisp) << condLSB) & immMask))
		return true, nil
	}

	// Long form: the original opcode branches over the fall-through B,
	// which itself skips the LDR/BR/literal sequence.
	e.buf.padForAlign(4, 8)
	e.ctx.recordEmission(idx, e.buf.cursor())
	condWord := (ins & preserveMask) | (((uint32(8) >> 2) << condLSB) & immMask)
	e.buf.emit(condWord)
	e.buf.emit(bWord(5)) // B #20, i.e. 5 words past itself
	e.buf.emit(ldrX17_8)
	e.buf.emit(brX17)
	e.buf.emitAddr(uint64(absTarget))
	return true, nil
}
