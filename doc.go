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

/*
Package and64hook implements inline function hooking for the ARM64
(AArch64) instruction set: it redirects calls to an existing function F
to a replacement function R, while preserving the ability to invoke the
original F through a generated trampoline.

# The hard part

Overwriting the entry of F with a branch is trivial. The engineering
difficulty is relocating the handful of instructions displaced by that
branch: AArch64 pervasively uses PC-relative addressing for branches,
conditional branches, literal loads, and address formation (ADR/ADRP),
and a naive byte copy of those instructions to the trampoline corrupts
every one of them. This package decodes each displaced instruction,
recomputes its original absolute target, and either re-encodes it with
a new PC-relative displacement or expands it into a literal-pool long
form when the displacement would overflow.

# Platforms supported

This package patches live executable memory, so it is OS- and
CPU-arch-specific.

Supported CPU arch:

  - ARM64 aka AArch64

Supported OSes:

  - Linux
  - macOS
  - FreeBSD (other BSD flavours should also work)

# Usage

	tramp, err := and64hook.InstallHook(entry, replacement)
	if err != nil {
	    ...
	}
	// tramp, cast back to the original signature, calls through to pre-hook F.

Use [InstallHookWithBuffer] to supply your own RWX buffer instead of
drawing one from the package's default trampoline pool.
*/
package and64hook
