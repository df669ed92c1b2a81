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
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// slotWords is sized to the worst case a single Emit call can produce:
// MaxInstructions source words, each capable of expanding to the longest
// rewritten form (up to 9 words for an inlined 128-bit literal load with
// its alignment NOPs), plus the tail branch (up to 5 words).
const slotWords = MaxInstructions * 10
const slotSize = slotWords * wordSize

const defaultMaxBackups = 256

// TrampolinePool is the external pool allocator spec section 5 and 9
// describe: wait-free unique-slot issuance over a bounded, RWX-mapped
// region, exposed here as an explicit allocator instead of process-wide
// hidden state, with the one-time page-permission setup performed lazily
// on first Allocate rather than at package init.
type TrampolinePool struct {
	maxSlots int32
	index    atomic.Int32
	once     sync.Once
	mem      []byte
	mmapErr  error
}

// PoolOption configures a TrampolinePool at construction.
type PoolOption func(*TrampolinePool)

// WithMaxBackups overrides the default pool slot count (256), the
// max_backups knob of spec section 9's configuration surface.
func WithMaxBackups(n int) PoolOption {
	return func(p *TrampolinePool) { p.maxSlots = int32(n) }
}

// NewTrampolinePool creates a pool; the backing RWX region is not mapped
// until the first call to Allocate.
func NewTrampolinePool(opts ...PoolOption) *TrampolinePool {
	p := &TrampolinePool{maxSlots: defaultMaxBackups}
	p.index.Store(-1)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TrampolinePool) ensureMapped() error {
	p.once.Do(func() {
		p.mem, p.mmapErr = mmapRWX(int(p.maxSlots) * slotSize)
	})
	return p.mmapErr
}

// Allocate returns a unique slotSize-byte RWX slot, or ErrPoolExhausted
// once maxSlots have been issued. Allocation is wait-free: a single
// atomic fetch-and-add over the bounded index, per spec section 5.
func (p *TrampolinePool) Allocate() (unsafe.Pointer, error) {
	if err := p.ensureMapped(); err != nil {
		return nil, fmt.Errorf("and64hook: mapping trampoline pool: %w", err)
	}
	i := p.index.Add(1)
	if i < 0 || i >= p.maxSlots {
		return nil, ErrPoolExhausted
	}
	return unsafe.Pointer(&p.mem[int(i)*slotSize]), nil
}

// defaultPool backs InstallHook when the caller does not supply its own
// buffer via InstallHookWithBuffer.
var defaultPool = NewTrampolinePool()
