// Copyright 2026 readmit Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// barListener renders every progress span as a terminal progress bar.
type barListener struct {
	w    io.Writer
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newBarListener(w io.Writer) *barListener {
	return &barListener{w: w, bars: make(map[string]*progressbar.ProgressBar)}
}

func (l *barListener) OnStart(name string, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bar, exist := l.bars[name]; exist {
		bar.Reset()
		bar.ChangeMax64(int64(total))
		return
	}
	l.bars[name] = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(l.w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (l *barListener) OnAdd(name string, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bar, exist := l.bars[name]; exist {
		_ = bar.Add(n)
	}
}

func (l *barListener) OnEnd(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bar, exist := l.bars[name]; exist {
		_ = bar.Finish()
		delete(l.bars, name)
	}
}
