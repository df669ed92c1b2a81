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

import "fmt"

// DataReader reads `size` bytes starting at the live absolute address
// addr. It exists so the relocator (Emit) can inline literal-load data
// without depending on unsafe memory access directly: production callers
// pass a reader backed by real memory, tests pass one backed by a fake
// source image.
type DataReader func(addr uintptr, size int) []byte

// Emitter drives the per-class rewriters over a displaced window and
// accumulates the relocated trampoline in a wordBuffer. It is the
// Trampoline Emitter of spec section 4.6.
type Emitter struct {
	ctx     *relocContext
	buf     *wordBuffer
	readMem DataReader
	logger  Logger
}

type rewriteFunc func(*Emitter, int, uint32, uintptr) (bool, error)

var rewriters = []rewriteFunc{
	(*Emitter).rewriteBranch,
	(*Emitter).rewriteCondBranch,
	(*Emitter).rewriteLiteralLoad,
	(*Emitter).rewritePCRelAddr,
}

// Emit relocates the N source instruction words in src (read starting at
// basep) into a trampoline whose first word will live at outBase, and
// appends the tail branch back to basep + N*wordSize. readMem is
// consulted only by the literal-load rewriter's inline-data path; a nil
// reader is an error if that path is ever exercised. A nil logger falls
// back to DefaultLogger.
func Emit(src []uint32, basep, outBase uintptr, readMem DataReader, logger Logger) ([]uint32, error) {
	n := len(src)
	if n < 1 || n > MaxInstructions {
		return nil, fmt.Errorf("and64hook: displaced window of %d instructions out of range [1,%d]", n, MaxInstructions)
	}

	e := &Emitter{
		ctx:     newRelocContext(basep, n),
		buf:     newWordBuffer(outBase, n*10),
		readMem: readMem,
		logger:  logOrDefault(logger),
	}

	for i, ins := range src {
		srcAddr := basep + uintptr(i)*wordSize
		e.ctx.recordEmission(i, e.buf.cursor())

		consumed := false
		for _, rw := range rewriters {
			ok, err := rw(e, i, ins, srcAddr)
			if err != nil {
				return nil, err
			}
			if ok {
				consumed = true
				break
			}
		}
		if !consumed {
			e.logger.Debug("and64hook: copying opaque instruction verbatim", "word", ins, "mnemonic", disasmOne(ins))
			e.buf.emit(ins)
		}

		e.ctx.resolvePending(i, e.buf)
	}

	tailTarget := basep + uintptr(n)*wordSize
	e.emitTailBranch(tailTarget)

	return e.buf.words, nil
}

// emitTailBranch appends the unconditional transfer back to the first
// non-displaced original instruction, per spec section 4.6.
func (e *Emitter) emitTailBranch(target uintptr) {
	cursor := e.buf.cursor()
	wordDisp := (int64(target) - int64(cursor)) >> 2
	if fitsField(wordDisp, 26) {
		e.buf.emit(bWord(wordDisp))
		return
	}
	e.buf.padForAlign(2, 8)
	e.buf.emit(ldrX17_8)
	e.buf.emit(brX17)
	e.buf.emitAddr(uint64(target))
}
