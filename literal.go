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

import (
	"encoding/binary"
	"fmt"
)

const (
	litPreserveMask uint32 = 0xFF00001F // opcode hi8 + Rt lo5
	litImmMask      uint32 = 0x00FFFFE0 // imm19 at bits[23:5]
	litLSB                 = 5
)

// literalAlignment returns the natural alignment in bytes of the datum
// loaded by ins, and whether ins is a literal-load instruction at all
// (PRFM included, reported with alignment 0 since it loads nothing).
func literalAlignment(ins uint32) (align uint32, isLiteral bool, isPRFM bool) {
	switch {
	case ins&0xFF000000 == 0xD8000000: // PRFM
		return 0, true, true
	case ins&0xBF000000 == 0x18000000: // LDR literal (GPR)
		if ins&0x40000000 != 0 {
			return 8, true, false
		}
		return 4, true, false
	case ins&0x3F000000 == 0x1C000000: // LDR literal (SIMD/FP)
		switch ins & 0xC0000000 {
		case 0x40000000:
			return 8, true, false
		case 0x80000000:
			return 16, true, false
		default:
			return 4, true, false
		}
	case ins&0xFF000000 == 0x98000000: // LDRSW literal
		// Natural alignment tracks the loaded datum's width (32 bits),
		// not the sign-extended 64-bit register it lands in.
		return 4, true, false
	default:
		return 0, false, false
	}
}

// rewriteLiteralLoad implements the Literal-Load Rewriter of spec 4.4.
func (e *Emitter) rewriteLiteralLoad(idx int, ins uint32, srcAddr uintptr) (bool, error) {
	align, isLiteral, isPRFM := literalAlignment(ins)
	if !isLiteral {
		return false, nil
	}
	if isPRFM {
		// A hint; dropped rather than relocated. The slot's emittedAt
		// stays at the current cursor (nothing was emitted for it), which
		// is only observable if another displaced instruction targets
		// this PRFM's address, an exceedingly unusual case.
		return true, nil
	}

	off := signExtend((ins>>litLSB)&0x7FFFF, 19) * 4
	absTarget := uintptr(int64(srcAddr) + off)
	cursor := e.buf.cursor()

	halfRange := int64(1) << 18
	newDispWords := (int64(absTarget) - int64(cursor)) >> 2
	// Margin accounts for the NOPs the short path's alignment loop below
	// may still need to insert, which can push the displacement further out.
	margin := int64(align/wordSize) - 1
	needInline := e.ctx.inWindow(absTarget) || (abs64(newDispWords)+margin) >= halfRange

	if needInline {
		return true, e.inlineLiteral(idx, ins, absTarget, align)
	}

	// The reencoded displacement must itself be a multiple of align/wordSize
	// words; a NOP advances the cursor by one word and is recomputed after
	// each insertion, same as the inline path's padForAlign but expressed
	// in word-granular terms since nothing here is bound to a fixed offset
	// from the cursor.
	alignWords := int64(align / wordSize)
	for newDispWords&(alignWords-1) != 0 {
		e.buf.emitNOP()
		cursor = e.buf.cursor()
		newDispWords = (int64(absTarget) - int64(cursor)) >> 2
	}
	e.ctx.recordEmission(idx, cursor)

	e.buf.emit((ins & litPreserveMask) | ((uint32(newDispWords) << litLSB) & litImmMask))
	return true, nil
}

// inlineLiteral implements spec 4.4's inline-data path: a short LDR to a
// literal embedded right in the trampoline, jumped over by a B, followed
// by the datum itself copied from the original address.
func (e *Emitter) inlineLiteral(idx int, ins uint32, absTarget uintptr, align uint32) error {
	e.buf.padForAlign(2, uintptr(align))
	e.ctx.recordEmission(idx, e.buf.cursor())

	e.buf.emit((ins & litPreserveMask) | ((uint32(2) << litLSB) & litImmMask))

	nWords := align / wordSize
	e.buf.emit(bWord(int64(1 + nWords)))

	if e.readMem == nil {
		return fmt.Errorf("and64hook: literal-load inline expansion needs a DataReader, none configured")
	}
	data := e.readMem(absTarget, int(align))
	if uint32(len(data)) != align {
		return fmt.Errorf("and64hook: DataReader returned %d bytes, want %d", len(data), align)
	}
	for i := uint32(0); i < nWords; i++ {
		e.buf.emit(binary.LittleEndian.Uint32(data[i*wordSize:]))
	}
	return nil
}
