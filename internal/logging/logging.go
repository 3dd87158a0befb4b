// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelEnabler maps logr verbosity onto zap levels: V(n) is zap level -n.
type levelEnabler struct {
	level int
}

func (l levelEnabler) Enabled(lvl zapcore.Level) bool {
	return -int(lvl) <= l.level
}

// Options configures the root logger.
type Options struct {
	// Level is the highest logr verbosity written. 0 keeps Info and Error.
	Level int
	// Development switches to the console encoder.
	Development bool
	// Output defaults to stderr so reports written to stdout stay clean.
	Output zapcore.WriteSyncer
}

// New returns the root logger of the command line tool.
func New(opts Options) logr.Logger {
	var encoderConfig zapcore.EncoderConfig
	if opts.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, out, levelEnabler{level: opts.Level})
	zapOpts := []zap.Option{zap.ErrorOutput(out)}
	if opts.Development {
		zapOpts = append(zapOpts, zap.AddCaller(), zap.Development())
	}
	return zapr.NewLogger(zap.New(core, zapOpts...))
}
