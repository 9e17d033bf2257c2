package main

import (
	"sync"
)

const defaultLogBufferLines = 1000

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	max   int
	mu    sync.Mutex
}

// NewLogBuffer keeps the last limit lines
func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = defaultLogBufferLines
	}
	return &LogBuffer{
		lines: make([]string, 0, limit),
		max:   limit,
	}
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	if len(lb.lines) > lb.max {
		lb.lines = lb.lines[len(lb.lines)-lb.max:]
	}

	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first
func (lb *LogBuffer) Lines() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
