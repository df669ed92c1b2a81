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

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		ins  uint32
		want Category
	}{
		{"B", 0x14000002, CatBranch},
		{"BL", 0x94000002, CatBranch},
		{"B.EQ", 0x54000040, CatCondBranch},
		{"CBZ", 0x34000001, CatCondBranch},
		{"CBNZ", 0x35000001, CatCondBranch},
		{"TBZ", 0x36000001, CatCondBranch},
		{"TBNZ", 0x37000001, CatCondBranch},
		{"LDR literal GPR", 0x18000000, CatLiteralLoad},
		{"LDR literal SIMD", 0x1C000000, CatLiteralLoad},
		{"LDRSW literal", 0x98000000, CatLiteralLoad},
		{"PRFM literal", 0xD8000000, CatLiteralLoad},
		{"ADR", 0x10000003, CatPCRelAddr},
		{"ADRP", 0x90000003, CatPCRelAddr},
		{"NOP", 0xD503201F, CatOpaque},
		{"MOV", 0xAA0103E0, CatOpaque},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.ins))
		})
	}
}
