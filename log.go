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
	"log/slog"

	"golang.org/x/arch/arm64/arm64asm"
)

// Logger is the best-effort diagnostic channel described by spec section 6:
// the core emits events for successful install, protection failure, pool
// exhaustion, and unhandleable relocations. A nil Logger on any exported
// constructor falls back to DefaultLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// DefaultLogger wraps the standard slog.Default logger. It is used
// wherever a nil Logger is passed to an exported constructor.
var DefaultLogger Logger = slogLogger{l: slog.Default()}

func logOrDefault(l Logger) Logger {
	if l == nil {
		return DefaultLogger
	}
	return l
}

// disasmOne renders a best-effort mnemonic for an opaque instruction word,
// for attaching to an UnrelocatableInstruction diagnostic. It never fails
// the caller: a decode error just means no mnemonic is attached.
func disasmOne(ins uint32) string {
	var buf [4]byte
	buf[0] = byte(ins)
	buf[1] = byte(ins >> 8)
	buf[2] = byte(ins >> 16)
	buf[3] = byte(ins >> 24)
	insn, err := arm64asm.Decode(buf[:])
	if err != nil {
		return ""
	}
	return arm64asm.GoSyntax(insn, 0, nil, nil)
}
