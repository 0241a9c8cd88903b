// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package flowconfig

import (
	"fmt"
	"time"

	"github.com/uber-go/mapdecode"
	"go.uber.org/flowgate/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fileConfig struct {
	Engine     engine                                    `config:"engine"`
	Logging    logging                                   `config:"logging"`
	Namespaces map[string]map[string]config.AttributeMap `config:"namespaces"`
}

type engine struct {
	Workers                   int           `config:"workers,interpolate"`
	StreamsBufferCapacity     int           `config:"streamsBufferCapacity,interpolate"`
	BufferSlotCapacity        int           `config:"bufferSlotCapacity,interpolate"`
	BudgetsCapacity           int           `config:"budgetsCapacity,interpolate"`
	MaximumMessagesPerRead    int           `config:"maximumMessagesPerRead,interpolate"`
	MaximumExpirationsPerPoll int           `config:"maximumExpirationsPerPoll,interpolate"`
	MaximumTasksPerTick       int           `config:"maximumTasksPerTick,interpolate"`
	StreamDefaultMaximum      int32         `config:"streamDefaultMaximum,interpolate"`
	PendingLimit              int           `config:"pendingLimit,interpolate"`
	ChildCleanupLinger        time.Duration `config:"childCleanupLinger,interpolate"`
	SyntheticAbort            bool          `config:"syntheticAbort,interpolate"`
	DebugBudgets              bool          `config:"debugBudgets,interpolate"`
	LockOSThread              bool          `config:"lockOSThread,interpolate"`

	Backoff struct {
		MaxSpins  int           `config:"maxSpins,interpolate"`
		MaxYields int           `config:"maxYields,interpolate"`
		MinPark   time.Duration `config:"minPark,interpolate"`
		MaxPark   time.Duration `config:"maxPark,interpolate"`
	} `config:"backoff"`

	Drain struct {
		OnClose bool          `config:"onClose,interpolate"`
		Timeout time.Duration `config:"timeout,interpolate"`
	} `config:"drain"`
}

type logging struct {
	Level       *zapLevel `config:"level"`
	Development bool      `config:"development"`
}

// build returns the logger described by the section, or nil if the section
// is empty.
func (l *logging) build() (*zap.Logger, error) {
	if l.Level == nil && !l.Development {
		return nil, nil
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if l.Level != nil {
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(*l.Level))
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}
	return logger, nil
}

type zapLevel zapcore.Level

func (l *zapLevel) Decode(into mapdecode.Into) error {
	var s string
	if err := into(&s); err != nil {
		return fmt.Errorf("could not decode Zap log level: %v", err)
	}

	err := (*zapcore.Level)(l).UnmarshalText([]byte(s))
	if err != nil {
		return fmt.Errorf("could not decode Zap log level: %v", err)
	}
	return err
}

type route struct {
	When  []map[string]string `config:"when"`
	Exit  string              `config:"exit,interpolate"`
	Guard uint64              `config:"guard,interpolate"`
}
