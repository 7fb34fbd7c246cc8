package evaluator

import (
	"strings"
	"testing"
)

func TestChannelRoundTrip(t *testing.T) {
	wantInspect(t, `(let [ch (chan! 2)]
  (send! ch 1)
  (send! ch 2)
  [(recv! ch) (recv! ch)])`, "[1 2]")
}

func TestUnboundedChannelNeverBlocksSender(t *testing.T) {
	wantInspect(t, `(let [ch (chan!)]
  (each (fn [i] (send! ch i)) (range 0 100))
  (close! ch)
  (recv! ch))`, "0")
}

func TestRecvTimeout(t *testing.T) {
	wantInspect(t, `(recv! (chan! 1) 10)`, "nil")
}

func TestRecvOnClosedDrainedChannel(t *testing.T) {
	wantInspect(t, `(let [ch (chan! 1)]
  (send! ch :last)
  (close! ch)
  [(recv! ch) (recv! ch)])`, "[:last nil]")
}

func TestSendOnClosedChannel(t *testing.T) {
	got := evalSrc(t, `(let [ch (chan! 1)]
  (close! ch)
  (send! ch 1))`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrChannelClosed {
		t.Fatalf("got %s, want channel-closed error", got.Inspect())
	}
}

func TestDoubleClose(t *testing.T) {
	got := evalSrc(t, `(let [ch (chan!)]
  (close! ch)
  (close! ch))`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrChannelClosed {
		t.Fatalf("got %s, want channel-closed error", got.Inspect())
	}
}

func TestChanRejectsNegativeCapacity(t *testing.T) {
	wantErrorContaining(t, `(chan! -1)`, "must not be negative")
}

func TestSelectPicksReadyChannel(t *testing.T) {
	wantInspect(t, `(let [a (chan! 1)
      b (chan! 1)]
  (send! b :hit)
  (select! [a b] :timeout 1000))`, "[1 :hit]")
}

func TestSelectTimeout(t *testing.T) {
	wantInspect(t, `(select! [(chan!) (chan!)] :timeout 10)`, ":timeout")
}

func TestSelectVariadicChannels(t *testing.T) {
	wantInspect(t, `(let [ch (chan! 1)]
  (send! ch 9)
  (select! ch))`, "[0 9]")
}

func TestPromiseAndWait(t *testing.T) {
	wantInspect(t, `(wait (promise! (fn [] (* 6 7))))`, "42")
}

func TestPromiseIsRecvable(t *testing.T) {
	wantInspect(t, `(recv! (promise! (fn [] :done)))`, ":done")
}

func TestWaitTimeout(t *testing.T) {
	wantErrorContaining(t, `(wait (promise! (fn [] (sleep 5000))) 10)`, "timed out")
}

func TestScopeSpawnJoin(t *testing.T) {
	wantInspect(t, `(let [s (scope!)
      out (atom 0)]
  (spawn! s (fn [] (swap! out (fn [n] (+ n 1)))))
  (spawn! s (fn [] (swap! out (fn [n] (+ n 10)))))
  (join! s)
  (deref out))`, "11")
}

func TestJoinSurfacesFirstTaskError(t *testing.T) {
	got := evalSrc(t, `(let [s (scope!)]
  (spawn! s (fn [] (/ 1 0)))
  (join! s))`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrDivisionByZero {
		t.Fatalf("got %s, want the spawned task's error", got.Inspect())
	}
}

func TestSpawnPassesArguments(t *testing.T) {
	wantInspect(t, `(let [s (scope!)
      out (atom nil)]
  (spawn! s (fn [a b] (reset! out (+ a b))) 3 4)
  (join! s)
  (deref out))`, "7")
}

func TestCancelledScope(t *testing.T) {
	wantInspect(t, `(let [s (scope!)]
  (cancel! s)
  (cancelled? s))`, "true")
	wantInspect(t, `(cancelled? (scope!))`, "false")
}

func TestStreamEndsAtNil(t *testing.T) {
	wantInspect(t, `(let [n (atom 0)
      s (stream! (fn []
                   (let [v (swap! n (fn [x] (+ x 1)))]
                     (if (> v 3) nil v))))]
  (stream->list s))`, "(1 2 3)")
}

func TestStreamNext(t *testing.T) {
	wantInspect(t, `(let [s (stream! (fn [] 5))]
  [(stream-next! s) (stream-next! s)])`, "[5 5]")
}

func TestStreamStopsForGood(t *testing.T) {
	// Once a producer returns nil the stream stays finished even if
	// the producer would yield again.
	wantInspect(t, `(let [n (atom 0)
      s (stream! (fn []
                   (let [v (swap! n (fn [x] (+ x 1)))]
                     (if (= v 1) nil v))))]
  (stream-next! s)
  (stream-next! s))`, "nil")
}

func TestPmapPreservesInputOrder(t *testing.T) {
	// Later items finish first; the result order must still follow the
	// input.
	wantInspect(t, `(pmap (fn [x] (do (sleep (- 30 (* x 10))) (* x x))) [1 2 3])`, "[1 4 9]")
}

func TestPmapPropagatesError(t *testing.T) {
	got := evalSrc(t, `(pmap (fn [x] (/ 10 x)) [5 0 2])`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrDivisionByZero {
		t.Fatalf("got %s, want division error", got.Inspect())
	}
}

func TestAsyncPipeIntoWait(t *testing.T) {
	wantInspect(t, `(wait (3 ~> inc))`, "4")
}

func TestParallelPipeKeepsShape(t *testing.T) {
	got := evalSrc(t, `([1 2 3] ||> (map inc))`).Inspect()
	if got != "[2 3 4]" {
		t.Fatalf("got %s, want [2 3 4]", got)
	}
}

func TestChannelInspect(t *testing.T) {
	for _, tt := range []struct{ src, want string }{
		{`(chan!)`, "<channel>"},
		{`(scope!)`, "<scope>"},
		{`(stream! (fn [] nil))`, "<stream>"},
	} {
		if got := evalSrc(t, tt.src).Inspect(); !strings.Contains(got, tt.want) {
			t.Errorf("%s => %s, want %s", tt.src, got, tt.want)
		}
	}
}
