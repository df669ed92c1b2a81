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
	"sync/atomic"
	"unsafe"
)

// InstallHook implements install_hook from spec section 6: it hooks F to
// redirect to R, drawing a trampoline slot from the package's default
// pool, and returns the trampoline (callable as pre-hook F).
func InstallHook(f, r unsafe.Pointer) (unsafe.Pointer, error) {
	return InstallHookOptions(f, r, nil)
}

// HookOption configures a single InstallHook/InstallHookOptions call.
type HookOption func(*hookConfig)

type hookConfig struct {
	logger Logger
}

// WithLogger overrides the logger used for this hook's diagnostics.
func WithLogger(l Logger) HookOption {
	return func(c *hookConfig) { c.logger = l }
}

// InstallHookOptions is InstallHook with diagnostic options.
func InstallHookOptions(f, r unsafe.Pointer, opts []HookOption) (unsafe.Pointer, error) {
	cfg := &hookConfig{}
	for _, o := range opts {
		o(cfg)
	}
	logger := logOrDefault(cfg.logger)

	slot, err := defaultPool.Allocate()
	if err != nil {
		logger.Warn("and64hook: pool exhausted", "f", f)
		return nil, err
	}
	return installInto(f, r, slot, slotSize, logger)
}

// InstallHookWithBuffer implements install_hook_with_buffer from spec
// section 6: identical to InstallHook but using a caller-provided RWX
// buffer of at least N*10*4 bytes, where N is the number of displaced
// instructions this (F, R) pair requires.
func InstallHookWithBuffer(f, r, buf unsafe.Pointer, bufSize uintptr) (unsafe.Pointer, error) {
	return installInto(f, r, buf, bufSize, DefaultLogger)
}

// windowSize decides N per spec section 4.7 step 1: a single direct
// branch suffices when the entry-to-replacement displacement fits a
// 26-bit word-granular field; otherwise four words, or five if an
// alignment NOP is needed so the literal at F+8 lands 8-byte aligned.
func windowSize(f, r unsafe.Pointer) int {
	d := int64(uintptr(r)) - int64(uintptr(f))
	if fitsField(d>>2, 26) {
		return 1
	}
	if (uintptr(f)+8)&7 != 0 {
		return 5
	}
	return 4
}

func installInto(f, r, buf unsafe.Pointer, bufSize uintptr, logger Logger) (unsafe.Pointer, error) {
	fAddr := uintptr(f)
	rAddr := uintptr(r)
	n := windowSize(f, r)

	if bufSize < uintptr(n*10*wordSize) {
		return nil, ErrBufferTooSmall
	}

	src := readWords(fAddr, n)
	emitted, err := Emit(src, fAddr, uintptr(buf), readLiveMemory, logger)
	if err != nil {
		logger.Error("and64hook: trampoline emission failed", "f", f, "err", err)
		return nil, err
	}

	if err := makeRWX(uintptr(buf), len(emitted)*wordSize); err != nil {
		return nil, ErrProtectionDenied
	}
	writeWords(uintptr(buf), emitted)
	flushICache(uintptr(buf), len(emitted)*wordSize)

	if err := makeRWX(fAddr, n*wordSize); err != nil {
		logger.Warn("and64hook: protection denied patching entry", "f", f)
		return nil, ErrProtectionDenied
	}

	if n == 1 {
		old := loadWord(fAddr)
		newDisp := (int64(rAddr) - int64(fAddr)) >> 2
		newWord := bWord(newDisp)
		if !casWord(fAddr, old, newWord) {
			return nil, ErrEntryChanged
		}
	} else {
		off := fAddr
		if n == 5 {
			storeWord(off, nopWord)
			off += wordSize
		}
		storeWord(off, ldrX17_8)
		storeWord(off+wordSize, brX17)
		storeAddr(off+2*wordSize, uint64(rAddr))
	}
	flushICache(fAddr, n*wordSize)

	logger.Info("and64hook: hook installed", "f", f, "r", r, "displaced", n)
	return buf, nil
}

func readWords(addr uintptr, n int) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(addr)), n)
}

func writeWords(addr uintptr, words []uint32) {
	dst := unsafe.Slice((*uint32)(unsafe.Pointer(addr)), len(words))
	copy(dst, words)
}

func loadWord(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func storeWord(addr uintptr, w uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = w
}

func storeAddr(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}

// casWord performs the single naturally aligned 32-bit atomic
// compare-and-swap spec section 5 requires for short-form entry patches.
func casWord(addr uintptr, old, new uint32) bool {
	return atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(addr)), old, new)
}

// readLiveMemory is the production DataReader: it reads size bytes from
// live process memory starting at addr, for the literal-load rewriter's
// inline-data path.
func readLiveMemory(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
