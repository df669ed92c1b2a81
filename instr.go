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

// MaxInstructions is the displaced-window ceiling, fixed by AArch64's
// 4-byte instructions and the 16-byte LDR/BR/addr sequence plus at most
// one alignment NOP.
const MaxInstructions = 5

const wordSize = 4

// Literal word encodings used throughout the long forms.
const (
	nopWord   uint32 = 0xD503201F // NOP
	ldrX17_8  uint32 = 0x58000051 // LDR X17, #8
	ldrX17_12 uint32 = 0x58000071 // LDR X17, #12
	brX17     uint32 = 0xD61F0220 // BR X17
	adrX30_16 uint32 = 0x1000009E // ADR X30, #16
)

const (
	opB  uint32 = 0x14000000
	opBL uint32 = 0x94000000
)

// signExtend sign-extends the low `bits` bits of x to an int64.
func signExtend(x uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(x<<shift) >> shift)
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// fitsField reports whether a signed value of `width` bits can hold v.
// Used uniformly for the 26/19/14/21-bit PC-relative immediate fields: a
// field of width w holds magnitudes strictly less than 2^(w-1), which is
// the symmetric boundary spec.md's testable properties describe (e.g. B/BL
// at |disp| = 2^25-1 reencodes short, at 2^25 goes long).
func fitsField(v int64, width uint) bool {
	return abs64(v) < (int64(1) << (width - 1))
}

// bWord encodes an unconditional branch (B, opcode 0x14000000) whose
// imm26 is the word displacement (not byte displacement) from its own
// address to target.
func bWord(wordDisp int64) uint32 {
	return opB | (uint32(wordDisp) & 0x03FFFFFF)
}
