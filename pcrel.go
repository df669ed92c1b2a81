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

const (
	adrRdMask uint32 = 0x0000001F
)

// decodeAdrImm reconstructs the 21-bit signed immhi:immlo immediate common
// to ADR and ADRP: immlo is bits[30:29], immhi is bits[23:5].
func decodeAdrImm(ins uint32) int64 {
	immlo := (ins >> 29) & 0x3
	immhi := (ins >> 5) & 0x7FFFF
	raw := (immhi << 2) | immlo
	return signExtend(raw, 21)
}

// rewritePCRelAddr implements the PC-relative Address Rewriter of spec 4.5
// for ADR and ADRP.
func (e *Emitter) rewritePCRelAddr(idx int, ins uint32, srcAddr uintptr) (bool, error) {
	isADRP := ins&0x9F000000 == 0x90000000
	isADR := ins&0x9F000000 == 0x10000000
	if !isADR && !isADRP {
		return false, nil
	}

	imm := decodeAdrImm(ins)
	var absTarget uintptr
	if isADRP {
		pageBase := uintptr(srcAddr) &^ 0xFFF
		absTarget = uintptr(int64(pageBase) + imm*4096)
	} else {
		absTarget = uintptr(int64(srcAddr) + imm)
	}

	rd := ins & adrRdMask
	cursor := e.buf.cursor()

	if e.ctx.inWindow(absTarget) {
		// Open question (spec section 9), stated there for ADRP: the page
		// base computed at the trampoline differs from the page base at
		// F, so there is no sound rewrite without scanning for and
		// jointly rewriting the subsequent ADD/LDR that completes the
		// address computation. ADR shares the same difficulty whenever
		// the target is a forward reference (its final trampoline address
		// isn't known yet), so both are conservatively forwarded verbatim
		// with a diagnostic rather than only ADRP.
		e.logger.Warn("and64hook: PC-relative address instruction with intra-window target forwarded verbatim",
			"word", ins, "src_addr", srcAddr)
		e.buf.emit(ins)
		return true, nil
	}

	if isADR {
		newDisp := int64(absTarget) - int64(cursor)
		if fitsField(newDisp, 21) {
			immlo := uint32(newDisp) & 0x3
			immhi := (uint32(newDisp) >> 2) & 0x7FFFF
			e.buf.emit((ins &^ 0x60FFFFE0) | (immlo << 29) | (immhi << 5))
			return true, nil
		}
	}

	e.buf.padForAlign(2, 8)
	e.ctx.recordEmission(idx, e.buf.cursor())
	e.buf.emit((ldrX17_8 &^ adrRdMask) | rd) // LDR Xd, #8 with Rd swapped in for X17
	e.buf.emit(bWord(3)) // B #12
	e.buf.emitAddr(uint64(absTarget))
	return true, nil
}
