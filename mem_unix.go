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

//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package and64hook

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// makeRWX grants read/write/execute permission over the page(s) spanning
// [addr, addr+size), the make_rwx host collaborator of spec section 6.
func makeRWX(addr uintptr, size int) error {
	start, sz := calcBoundaries(addr, size)
	page := unsafe.Slice((*uint8)(unsafe.Pointer(start)), sz)
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return err
	}
	return nil
}

func calcBoundaries(addr uintptr, size int) (uintptr, uintptr) {
	pageSize := uintptr(os.Getpagesize())
	areaStart := addr &^ (pageSize - 1)
	areaSize := (addr + uintptr(size)) - areaStart
	return areaStart, areaSize
}

func mmapRWX(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func munmapRWX(b []byte) error {
	return unix.Munmap(b)
}
