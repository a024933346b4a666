package importer

// scheduler is a trampoline for continuation-passing code.
//
// Calls run inline until the call depth reaches its limit. Past the limit, they are queued
// and run once the stack has unwound back to the run loop. The queue is FIFO, so that
// continuations registered in some order are invoked in the same order.
type scheduler struct {
	maxDepth int
	depth    int
	queue    []func()
	deferred int
}

func newScheduler(maxDepth int) *scheduler {
	return &scheduler{maxDepth: maxDepth}
}

func (s *scheduler) call(f func()) {
	if s.depth >= s.maxDepth {
		s.deferred++
		s.queue = append(s.queue, f)
		return
	}
	s.depth++
	f()
	s.depth--
}

// run drains the queue. between is invoked before each queued call.
func (s *scheduler) run(between func()) {
	for len(s.queue) > 0 {
		f := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		if between != nil {
			between()
		}
		s.call(f)
	}
}
