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

package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type tracerKeyType struct{}

var tracerKey = tracerKeyType{}

type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Listener is notified as spans advance. Calls may come from several goroutines.
type Listener interface {
	OnStart(name string, total int)
	OnAdd(name string, n int)
	OnEnd(name string)
}

// Tracer records the spans of one run.
type Tracer struct {
	name     string
	listener Listener
	mu       sync.Mutex
	spans    []*Span
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// SetListener attaches a listener. It must be called before any span starts.
func (t *Tracer) SetListener(listener Listener) {
	t.listener = listener
}

// Attach returns a context carrying the tracer so that Start records into it.
func (t *Tracer) Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, tracerKey, t)
}

// Start creates a span recorded by the tracer.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := &Span{
		tracer: t,
		name:   name,
		total:  total,
		status: StatusRunning,
		start:  time.Now(),
	}
	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	if t.listener != nil {
		t.listener.OnStart(name, total)
	}
	return t.Attach(ctx), span
}

// List returns the progress of every span in start order.
func (t *Tracer) List() []Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	progress := make([]Progress, 0, len(t.spans))
	for _, span := range t.spans {
		progress = append(progress, span.progress())
	}
	return progress
}

// Span tracks one unit of work with a known number of steps.
type Span struct {
	tracer *Tracer
	name   string
	total  int
	count  atomic.Int64

	mu     sync.Mutex
	status Status
	err    error
	start  time.Time
	finish time.Time
}

// Add advances the span by n steps.
func (s *Span) Add(n int) {
	s.count.Add(int64(n))
	if s.tracer != nil && s.tracer.listener != nil {
		s.tracer.listener.OnAdd(s.name, n)
	}
}

// End completes the span.
func (s *Span) End() {
	s.mu.Lock()
	s.status = StatusComplete
	s.finish = time.Now()
	s.mu.Unlock()
	if s.tracer != nil && s.tracer.listener != nil {
		s.tracer.listener.OnEnd(s.name)
	}
}

// Fail marks the span failed.
func (s *Span) Fail(err error) {
	s.mu.Lock()
	s.status = StatusFailed
	s.err = err
	s.finish = time.Now()
	s.mu.Unlock()
	if s.tracer != nil && s.tracer.listener != nil {
		s.tracer.listener.OnEnd(s.name)
	}
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

func (s *Span) progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{
		Name:       s.name,
		Status:     s.status,
		Count:      s.Count(),
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}
	if s.tracer != nil {
		p.Tracer = s.tracer.name
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	return p
}

// Start creates a span in the tracer carried by ctx. Without a tracer the span
// is detached and only counts.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	if tracer, ok := ctx.Value(tracerKey).(*Tracer); ok {
		return tracer.Start(ctx, name, total)
	}
	return ctx, &Span{name: name, total: total, status: StatusRunning, start: time.Now()}
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
