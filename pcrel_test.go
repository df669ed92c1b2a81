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

func encodeADR(rd uint32, imm int64) uint32 {
	immlo := uint32(imm) & 0x3
	immhi := (uint32(imm) >> 2) & 0x7FFFF
	return 0x10000000 | (immlo << 29) | (immhi << 5) | rd
}

func TestDecodeAdrImm(t *testing.T) {
	ins := encodeADR(3, 0x100)
	require.EqualValues(t, 0x100, decodeAdrImm(ins))
}

func TestRewritePCRelAddrADRShortReencode(t *testing.T) {
	const f = uintptr(0x4000_0000)
	e := newTestEmitter(f, f, 1) // unchanged cursor -> disp unchanged
	ins := encodeADR(3, 0x100)
	ok, err := e.rewritePCRelAddr(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ins, e.buf.words[0])
}

func TestRewritePCRelAddrADRLongForm(t *testing.T) {
	const f = uintptr(0x4000_0000)
	const outBase = uintptr(0xF000_0000)
	const target = f + 0x100
	e := newTestEmitter(f, outBase, 1)
	ins := encodeADR(3, 0x100)

	ok, err := e.rewritePCRelAddr(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, (ldrX17_8&^adrRdMask)|3, e.buf.words[0])
	require.Equal(t, bWord(3), e.buf.words[1])
	gotAddr := uint64(e.buf.words[2]) | uint64(e.buf.words[3])<<32
	require.EqualValues(t, target, gotAddr)
}

func TestRewritePCRelAddrADRPIntraWindowForwardsVerbatim(t *testing.T) {
	const f = uintptr(0x4000_0000)
	e := newTestEmitter(f, f, 2)
	ins := uint32(0x90000000) // ADRP X0, #0 -> target == its own page, inside window
	ok, err := e.rewritePCRelAddr(0, ins, f)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ins, e.buf.words[0])
}

func TestRewritePCRelAddrNotMatched(t *testing.T) {
	e := newTestEmitter(0x1000, 0x2000, 1)
	ok, err := e.rewritePCRelAddr(0, nopWord, 0x1000)
	require.NoError(t, err)
	require.False(t, ok)
}
