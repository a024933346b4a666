package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsInlineBelowLimit(t *testing.T) {
	s := newScheduler(10)
	var trace []int
	s.call(func() {
		trace = append(trace, 1)
		s.call(func() { trace = append(trace, 2) })
		trace = append(trace, 3)
	})
	assert.Equal(t, []int{1, 2, 3}, trace)
	assert.Zero(t, s.deferred)
}

func TestSchedulerDefersPastLimit(t *testing.T) {
	s := newScheduler(1)
	var trace []int
	s.call(func() {
		trace = append(trace, 1)
		s.call(func() {
			trace = append(trace, 3)
			s.call(func() { trace = append(trace, 5) })
		})
		s.call(func() { trace = append(trace, 4) })
		trace = append(trace, 2)
	})
	assert.Equal(t, []int{1, 2}, trace)
	assert.Equal(t, 2, s.deferred)

	var ticks int
	s.run(func() { ticks++ })
	assert.Equal(t, []int{1, 2, 3, 4, 5}, trace)
	assert.Equal(t, 3, s.deferred)
	assert.Equal(t, 3, ticks)
}

func TestSchedulerDeepChain(t *testing.T) {
	s := newScheduler(DefaultMaxDepth)
	const n = 1000000
	var count int
	var step func()
	step = func() {
		count++
		if count < n {
			s.call(step)
		}
	}
	s.call(step)
	s.run(nil)
	assert.Equal(t, n, count)
	assert.Zero(t, s.depth)
}
