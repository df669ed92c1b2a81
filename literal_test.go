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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralAlignment(t *testing.T) {
	align, isLit, isPRFM := literalAlignment(0x18000000) // LDR Wt (32-bit)
	require.True(t, isLit)
	require.False(t, isPRFM)
	require.EqualValues(t, 4, align)

	align, _, _ = literalAlignment(0x58000000) // LDR Xt (64-bit), bit30 set
	require.EqualValues(t, 8, align)

	align, _, _ = literalAlignment(0x1C000000) // LDR St (32-bit SIMD)
	require.EqualValues(t, 4, align)

	align, _, _ = literalAlignment(0x5C000000) // LDR Dt (64-bit SIMD)
	require.EqualValues(t, 8, align)

	align, _, _ = literalAlignment(0x9C000000) // LDR Qt (128-bit SIMD)
	require.EqualValues(t, 16, align)

	align, _, _ = literalAlignment(0x98000000) // LDRSW
	require.EqualValues(t, 4, align)

	_, _, isPRFM = literalAlignment(0xD8000000) // PRFM
	require.True(t, isPRFM)
}

func TestRewriteLiteralLoadDropsPRFM(t *testing.T) {
	const f = uintptr(0x1000_0000)
	e := newTestEmitter(f, f, 1)
	ok, err := e.rewriteLiteralLoad(0, 0xD8000000, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, e.buf.words)
}

func TestRewriteLiteralLoadShortReencode(t *testing.T) {
	const f = uintptr(0x1000_0000)
	e := newTestEmitter(f, f, 1) // outBase == f, so disp is unchanged
	ins := uint32(0x18000000) | ((0x10 / 4) << litLSB)
	ok, err := e.rewriteLiteralLoad(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ins, e.buf.words[0])
}

func TestRewriteLiteralLoadShortReencodeInsertsOneNOPForAlignment(t *testing.T) {
	const f = uintptr(0x1000_0000)
	e := newTestEmitter(f, f, 1) // outBase == f, so disp starts out unchanged
	ins := uint32(0x58000000) | (uint32(3) << litLSB)
	ok, err := e.rewriteLiteralLoad(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, e.buf.words, 2)
	require.Equal(t, nopWord, e.buf.words[0])
	want := (ins & litPreserveMask) | ((uint32(2) << litLSB) & litImmMask)
	require.Equal(t, want, e.buf.words[1])
}

func TestRewriteLiteralLoadInlineIntraWindow(t *testing.T) {
	const f = uintptr(0x1000_0000)
	e := newTestEmitter(f, f, 2)
	e.readMem = func(addr uintptr, size int) []byte {
		require.EqualValues(t, f+4, addr)
		return make([]byte, size)
	}
	ins := uint32(0x18000000) | ((1) << litLSB) // LDR W0, #4 -> targets slot 1, intra-window
	ok, err := e.rewriteLiteralLoad(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, e.buf.words, 3)
	require.Equal(t, bWord(2), e.buf.words[1])
}
