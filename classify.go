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

// Category classifies a 32-bit instruction word into one of the
// relocatable categories this package knows how to rewrite, or
// CatOpaque for everything else (copied verbatim).
type Category int

const (
	CatOpaque Category = iota
	CatBranch
	CatCondBranch
	CatLiteralLoad
	CatPCRelAddr
)

// Classify maps a source word to its relocation category, per the table
// in spec section 4.1. It never inspects surrounding context: PRFM,
// though dropped rather than relocated, is still CatLiteralLoad, since
// the literal-load rewriter is what decides to drop it.
func Classify(ins uint32) Category {
	switch {
	case ins&0xFC000000 == opB, ins&0xFC000000 == opBL:
		return CatBranch
	case ins&0xFF000010 == 0x54000000: // B.cond
		return CatCondBranch
	case ins&0x7F000000 == 0x34000000, ins&0x7F000000 == 0x35000000: // CBZ/CBNZ
		return CatCondBranch
	case ins&0x7F000000 == 0x36000000, ins&0x7F000000 == 0x37000000: // TBZ/TBNZ
		return CatCondBranch
	case ins&0xBF000000 == 0x18000000: // LDR literal (GPR)
		return CatLiteralLoad
	case ins&0x3F000000 == 0x1C000000: // LDR literal (SIMD/FP)
		return CatLiteralLoad
	case ins&0xFF000000 == 0x98000000: // LDRSW literal
		return CatLiteralLoad
	case ins&0xFF000000 == 0xD8000000: // PRFM literal
		return CatLiteralLoad
	case ins&0x9F000000 == 0x10000000: // ADR
		return CatPCRelAddr
	case ins&0x9F000000 == 0x90000000: // ADRP
		return CatPCRelAddr
	default:
		return CatOpaque
	}
}
