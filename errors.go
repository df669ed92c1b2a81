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

import "errors"

// Sentinel errors surfaced to callers of InstallHook/InstallHookWithBuffer.
// UnrelocatableInstruction never surfaces here: it is a best-effort,
// logged-only condition (the instruction is copied verbatim instead).
var (
	// ErrPoolExhausted is returned when the default trampoline pool has no
	// free slot left. No side effects: F is left untouched.
	ErrPoolExhausted = errors.New("and64hook: trampoline pool exhausted")

	// ErrProtectionDenied is returned when the host OS refused to grant
	// read/write/execute permission over the target pages. No code has
	// been modified.
	ErrProtectionDenied = errors.New("and64hook: memory protection change denied")

	// ErrBufferTooSmall is returned by InstallHookWithBuffer when the
	// caller-supplied buffer cannot hold the relocated window.
	ErrBufferTooSmall = errors.New("and64hook: trampoline buffer too small")

	// ErrPatchOverflow indicates a slot's pending-patch table filled up.
	// This is a hard bug indicator (capacity 2*N is sized to never
	// overflow for any window this package emits); emission is aborted.
	ErrPatchOverflow = errors.New("and64hook: internal patch table overflow")

	// ErrEntryChanged is returned when the short-form entry-patch CAS
	// observed a pre-image different from the one the displacement was
	// computed against (a concurrent writer raced us).
	ErrEntryChanged = errors.New("and64hook: entry instruction changed concurrently")
)
