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

// wordBuffer is the Emission cursor of spec section 3: the current write
// pointer into the trampoline, monotonically increasing and always
// 4-byte aligned between emits.
type wordBuffer struct {
	base  uintptr
	words []uint32
}

func newWordBuffer(base uintptr, capacityWords int) *wordBuffer {
	return &wordBuffer{base: base, words: make([]uint32, 0, capacityWords)}
}

func (b *wordBuffer) cursor() uintptr {
	return b.base + uintptr(len(b.words))*wordSize
}

func (b *wordBuffer) emit(w uint32) {
	b.words = append(b.words, w)
}

func (b *wordBuffer) emitNOP() {
	b.emit(nopWord)
}

// emitAddr emits a 64-bit absolute address as two little-endian 32-bit
// words, per spec section 9's fixed endianness rule.
func (b *wordBuffer) emitAddr(addr uint64) {
	b.emit(uint32(addr))
	b.emit(uint32(addr >> 32))
}

// padForAlign emits NOPs until the address `offsetWords` words past the
// current cursor satisfies the given byte alignment. Every rewriter that
// places a literal pool, and the tail branch's long form, uses this: a NOP
// advances the cursor by one word, which also advances the eventual
// literal's address by one word, so each iteration changes the alignment
// residue by 4 bytes until it lands on a multiple of align.
func (b *wordBuffer) padForAlign(offsetWords int, align uintptr) {
	for (uint64(b.cursor())+uint64(offsetWords)*wordSize)%uint64(align) != 0 {
		b.emitNOP()
	}
}
