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

func TestSignExtend(t *testing.T) {
	assert.EqualValues(t, -1, signExtend(0x3FFFFFF, 26))
	assert.EqualValues(t, 0x1FFFFFF, signExtend(0x1FFFFFF, 26))
	assert.EqualValues(t, -0x2000000, signExtend(0x2000000, 26))
}

func TestFitsFieldBoundary(t *testing.T) {
	// B/BL: |disp| = 2^25-1 reencodes short, at 2^25 goes long.
	assert.True(t, fitsField((1<<25)-1, 26))
	assert.False(t, fitsField(-(1<<25), 26))
	assert.False(t, fitsField(1<<25, 26))
}

func TestBWordRoundTrip(t *testing.T) {
	w := bWord(1024)
	assert.EqualValues(t, 0x14000400, w)
	assert.EqualValues(t, 1024, signExtend(w&0x03FFFFFF, 26))
}
