package evaluator

import (
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Channel is a FIFO of values between tasks. A bounded channel maps
// directly onto a buffered Go channel; an unbounded one feeds a pump
// goroutine holding the overflow queue.
type Channel struct {
	in        chan Value
	out       chan Value
	mu        sync.Mutex
	closed    bool
	unbounded bool
}

func (c *Channel) Type() ValueType { return CHANNEL_OBJ }
func (c *Channel) Inspect() string { return "<channel>" }

func newChannel(capacity int) *Channel {
	ch := make(chan Value, capacity)
	return &Channel{in: ch, out: ch}
}

func newUnboundedChannel() *Channel {
	c := &Channel{
		in:        make(chan Value),
		out:       make(chan Value),
		unbounded: true,
	}
	go c.pump()
	return c
}

func (c *Channel) pump() {
	var queue []Value
	for {
		if len(queue) == 0 {
			v, ok := <-c.in
			if !ok {
				close(c.out)
				return
			}
			queue = append(queue, v)
			continue
		}
		select {
		case v, ok := <-c.in:
			if !ok {
				for _, q := range queue {
					c.out <- q
				}
				close(c.out)
				return
			}
			queue = append(queue, v)
		case c.out <- queue[0]:
			queue = queue[1:]
		}
	}
}

func (c *Channel) Send(v Value) *Error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return newKindError(ErrChannelClosed, "send on closed channel")
	}
	c.mu.Unlock()
	// A concurrent close between the check and the send surfaces as a
	// panic on the Go channel; translate it.
	var err *Error
	func() {
		defer func() {
			if recover() != nil {
				err = newKindError(ErrChannelClosed, "send on closed channel")
			}
		}()
		c.in <- v
	}()
	return err
}

// Recv blocks until a value arrives. A closed, drained channel and a
// timeout both yield nil.
func (c *Channel) Recv(timeout time.Duration) Value {
	if timeout <= 0 {
		v, ok := <-c.out
		if !ok {
			return NIL
		}
		return v
	}
	select {
	case v, ok := <-c.out:
		if !ok {
			return NIL
		}
		return v
	case <-time.After(timeout):
		return NIL
	}
}

func (c *Channel) Close() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newKindError(ErrChannelClosed, "channel already closed")
	}
	c.closed = true
	close(c.in)
	return nil
}

// Scope bounds the lifetime of spawned tasks and carries the
// cooperative cancellation flag.
type Scope struct {
	wg        sync.WaitGroup
	cancelled atomic.Bool
	mu        sync.Mutex
	firstErr  *Error
}

func (s *Scope) Type() ValueType { return SCOPE_OBJ }
func (s *Scope) Inspect() string { return "<scope>" }

func (s *Scope) recordError(err *Error) {
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	s.mu.Unlock()
}

func (s *Scope) Cancel()         { s.cancelled.Store(true) }
func (s *Scope) Cancelled() bool { return s.cancelled.Load() }

// Stream is a pull-based lazy iterator. The thunk returns nil when
// exhausted; Next is serialized so concurrent pulls never interleave.
type Stream struct {
	mu   sync.Mutex
	next func() Value
	done bool
}

func (s *Stream) Type() ValueType { return STREAM_OBJ }
func (s *Stream) Inspect() string { return "<stream>" }

func (s *Stream) Next() Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return NIL
	}
	v := s.next()
	if v == nil || v.Type() == NIL_OBJ {
		s.done = true
		return NIL
	}
	return v
}

// workerPool is the shared pool behind pmap and the parallel pipe.
// Submit falls back to running inline when every worker is busy, so
// nested parallel operations cannot deadlock the pool.
type workerPool struct {
	tasks chan func()
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &workerPool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		go func() {
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *workerPool) submit(task func()) {
	select {
	case p.tasks <- task:
	default:
		task()
	}
}

// cancellationSentinel is what blocking ops return when their scope
// was cancelled.
func (e *Evaluator) cancellationSentinel() Value {
	return e.KeywordVal("cancelled")
}

func (e *Evaluator) scopeCancelled() bool {
	return e.scope != nil && e.scope.Cancelled()
}

func registerConcurrencyBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "chan!", Fn: biChan},
		{Name: "send!", Fn: biSend},
		{Name: "recv!", Fn: biRecv},
		{Name: "close!", Fn: biClose},
		{Name: "select!", Fn: biSelect},
		{Name: "promise!", Fn: biPromise},
		{Name: "wait", Fn: biWait},
		{Name: "scope!", Fn: biScope},
		{Name: "spawn!", Fn: biSpawn},
		{Name: "join!", Fn: biJoin},
		{Name: "cancel!", Fn: biCancel},
		{Name: "cancelled?", Fn: biCancelledP},
		{Name: "stream!", Fn: biStream},
		{Name: "stream-next!", Fn: biStreamNext},
		{Name: "stream->list", Fn: biStreamToList},
		{Name: "sleep", Fn: biSleep},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biChan(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return newUnboundedChannel()
	}
	n, ok := args[0].(*Integer)
	if !ok {
		return newKindError(ErrType, "chan! capacity must be an integer, got %s", args[0].Type())
	}
	if n.Value < 0 {
		return newError("chan! capacity must not be negative")
	}
	return newChannel(int(n.Value))
}

func biSend(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "send! takes a channel and a value")
	}
	ch, ok := args[0].(*Channel)
	if !ok {
		return newKindError(ErrType, "send! needs a channel, got %s", args[0].Type())
	}
	if e.scopeCancelled() {
		return e.cancellationSentinel()
	}
	if err := ch.Send(args[1]); err != nil {
		return err
	}
	return TRUE
}

func biRecv(e *Evaluator, args []Value) Value {
	if len(args) < 1 || len(args) > 2 {
		return newKindError(ErrArgCount, "recv! takes a channel and an optional timeout in milliseconds")
	}
	ch, ok := args[0].(*Channel)
	if !ok {
		return newKindError(ErrType, "recv! needs a channel, got %s", args[0].Type())
	}
	if e.scopeCancelled() {
		return e.cancellationSentinel()
	}
	var timeout time.Duration
	if len(args) == 2 {
		ms, ok := args[1].(*Integer)
		if !ok {
			return newKindError(ErrType, "recv! timeout must be an integer, got %s", args[1].Type())
		}
		timeout = time.Duration(ms.Value) * time.Millisecond
	}
	return ch.Recv(timeout)
}

func biClose(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "close! takes exactly one channel")
	}
	ch, ok := args[0].(*Channel)
	if !ok {
		return newKindError(ErrType, "close! needs a channel, got %s", args[0].Type())
	}
	if err := ch.Close(); err != nil {
		return err
	}
	return NIL
}

// biSelect waits on several channels at once and returns [index value]
// for the first that delivers, or :timeout.
func biSelect(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return newKindError(ErrArgCount, "select! needs at least one channel")
	}
	if e.scopeCancelled() {
		return e.cancellationSentinel()
	}

	var channels []*Channel
	var timeout time.Duration
	items := args
	if seq, ok := seqItems(args[0]); ok && len(args) <= 3 {
		items = seq
		if len(args) == 3 {
			kw, ok := args[1].(*Keyword)
			if !ok || kw.Name() != "timeout" {
				return newKindError(ErrType, "select! options must be :timeout ms")
			}
			ms, ok := args[2].(*Integer)
			if !ok {
				return newKindError(ErrType, "select! timeout must be an integer")
			}
			timeout = time.Duration(ms.Value) * time.Millisecond
		}
	}
	for _, it := range items {
		ch, ok := it.(*Channel)
		if !ok {
			return newKindError(ErrType, "select! operates on channels, got %s", it.Type())
		}
		channels = append(channels, ch)
	}

	cases := make([]reflect.SelectCase, 0, len(channels)+1)
	for _, ch := range channels {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch.out)})
	}
	if timeout > 0 {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(time.After(timeout))})
	}

	chosen, recv, ok := reflect.Select(cases)
	if chosen == len(channels) {
		return e.KeywordVal("timeout")
	}
	var v Value = NIL
	if ok {
		v = recv.Interface().(Value)
	}
	return NewVector(&Integer{Value: int64(chosen)}, v)
}

// biPromise runs a thunk asynchronously and returns a channel of
// cardinality one carrying its result.
func biPromise(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "promise! takes exactly one function")
	}
	fn := args[0]
	ch := newChannel(1)
	clone := e.Clone()
	go func() {
		result := clone.callValue(fn, nil, tokenless)
		ch.Send(result)
		ch.Close()
	}()
	return ch
}

func biWait(e *Evaluator, args []Value) Value {
	if len(args) < 1 || len(args) > 2 {
		return newKindError(ErrArgCount, "wait takes a promise and an optional timeout in milliseconds")
	}
	ch, ok := args[0].(*Channel)
	if !ok {
		return newKindError(ErrType, "wait needs a promise channel, got %s", args[0].Type())
	}
	var timeout time.Duration
	if len(args) == 2 {
		ms, ok := args[1].(*Integer)
		if !ok {
			return newKindError(ErrType, "wait timeout must be an integer")
		}
		timeout = time.Duration(ms.Value) * time.Millisecond
	}
	if timeout > 0 {
		select {
		case v, ok := <-ch.out:
			if !ok {
				return NIL
			}
			return v
		case <-time.After(timeout):
			return newError("wait timed out after %s", timeout)
		}
	}
	v, open := <-ch.out
	if !open {
		return NIL
	}
	return v
}

func biScope(e *Evaluator, args []Value) Value {
	if len(args) != 0 {
		return newKindError(ErrArgCount, "scope! takes no arguments")
	}
	return &Scope{}
}

// biSpawn runs (f args…) on its own goroutine under the scope. The
// spawned task gets a cloned evaluator so defer and loading state
// stay isolated.
func biSpawn(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "spawn! takes a scope, a function and optional arguments")
	}
	scope, ok := args[0].(*Scope)
	if !ok {
		return newKindError(ErrType, "spawn! needs a scope, got %s", args[0].Type())
	}
	fn := args[1]
	callArgs := args[2:]

	clone := e.Clone()
	clone.scope = scope
	scope.wg.Add(1)
	go func() {
		defer scope.wg.Done()
		result := clone.callValue(fn, callArgs, tokenless)
		if err, ok := result.(*Error); ok {
			scope.recordError(err)
		}
	}()
	return NIL
}

func biJoin(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "join! takes exactly one scope")
	}
	scope, ok := args[0].(*Scope)
	if !ok {
		return newKindError(ErrType, "join! needs a scope, got %s", args[0].Type())
	}
	scope.wg.Wait()
	scope.mu.Lock()
	err := scope.firstErr
	scope.mu.Unlock()
	if err != nil {
		return err
	}
	return NIL
}

func biCancel(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "cancel! takes exactly one scope")
	}
	scope, ok := args[0].(*Scope)
	if !ok {
		return newKindError(ErrType, "cancel! needs a scope, got %s", args[0].Type())
	}
	scope.Cancel()
	return NIL
}

func biCancelledP(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return nativeBool(e.scopeCancelled())
	}
	scope, ok := args[0].(*Scope)
	if !ok {
		return newKindError(ErrType, "cancelled? needs a scope, got %s", args[0].Type())
	}
	return nativeBool(scope.Cancelled())
}

// biStream builds a lazy stream from a producer function; the stream
// ends at the first nil.
func biStream(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "stream! takes exactly one producer function")
	}
	fn := args[0]
	return &Stream{next: func() Value {
		return e.callValue(fn, nil, tokenless)
	}}
}

func biStreamNext(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "stream-next! takes exactly one stream")
	}
	s, ok := args[0].(*Stream)
	if !ok {
		return newKindError(ErrType, "stream-next! needs a stream, got %s", args[0].Type())
	}
	return s.Next()
}

func biStreamToList(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "stream->list takes exactly one stream")
	}
	s, ok := args[0].(*Stream)
	if !ok {
		return newKindError(ErrType, "stream->list needs a stream, got %s", args[0].Type())
	}
	var items []Value
	for {
		v := s.Next()
		if isError(v) {
			return v
		}
		if v.Type() == NIL_OBJ {
			return NewList(items...)
		}
		items = append(items, v)
	}
}

func biSleep(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "sleep takes milliseconds")
	}
	ms, ok := args[0].(*Integer)
	if !ok {
		return newKindError(ErrType, "sleep needs an integer, got %s", args[0].Type())
	}
	time.Sleep(time.Duration(ms.Value) * time.Millisecond)
	return NIL
}

// pmapValues fans work out over the shared pool, preserving input order.
func (e *Evaluator) pmapValues(fn Value, items []Value) Value {
	results := make([]Value, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		i, item := i, item
		clone := e.Clone()
		e.pool.submit(func() {
			defer wg.Done()
			results[i] = clone.callValue(fn, []Value{item}, tokenless)
		})
	}
	wg.Wait()
	for _, r := range results {
		if isError(r) {
			return r.(*Error)
		}
	}
	return NewList(results...)
}

func seqItems(v Value) ([]Value, bool) {
	switch v := v.(type) {
	case *List:
		return v.Items.ToSlice(), true
	case *Vector:
		return v.Items.ToSlice(), true
	}
	return nil, false
}
