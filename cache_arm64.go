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

/*
// ARM doesn't automatically invalidate the instruction cache, so a manual
// flush is needed after writing to a memory page holding executable code.

#include <stdint.h>
void and64hook_flush_cache(uint64_t addr, size_t len) {
	char *target = (char *)addr;
	__builtin___clear_cache(target, target + len);
}
*/
import "C"

// flushICache makes stores to [addr, addr+len) visible to instruction
// fetch on all cores, the flush_icache host collaborator of spec
// section 6. It must be called after all code stores for a trampoline or
// entry patch are committed and before any thread is permitted to
// execute the patched range.
func flushICache(addr uintptr, length int) {
	C.and64hook_flush_cache(C.uint64_t(addr), C.size_t(length))
}
