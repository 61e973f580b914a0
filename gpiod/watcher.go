package gpiod

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/BertoldVdb/go-gpiod/closeflag"
)

// WatcherPollTimeout bounds the blocking edge wait of the read loop.
// The timeout is the sole cancellation point, so stopping a watcher
// takes at most roughly this long plus any delivery in flight.
const WatcherPollTimeout = 100 * time.Millisecond

type watchItem struct {
	value Value
	err   error
}

// watcher is the background unit of execution of one watched line. The
// read loop blocks on the request's edge event primitive and enqueues
// decoded values, the dispatch loop hands them to the line's listeners
// in read order. The queue is unbounded so the read loop never blocks
// on a slow consumer and a stop never hangs on a pending hand-off.
type watcher struct {
	request *Request
	offset  uint32
	deliver func(value Value, err error)

	flag closeflag.CloseFlag

	mutex   sync.Mutex
	pending *queue.Queue
	wake    chan (struct{})

	readDone     chan (struct{})
	dispatchDone chan (struct{})
}

func newWatcher(request *Request, offset uint32, deliver func(value Value, err error)) *watcher {
	w := &watcher{
		request:      request,
		offset:       offset,
		deliver:      deliver,
		pending:      queue.New(),
		wake:         make(chan (struct{}), 1),
		readDone:     make(chan (struct{})),
		dispatchDone: make(chan (struct{})),
	}

	go w.readLoop()
	go w.dispatchLoop()

	return w
}

func (w *watcher) enqueue(item watchItem) {
	w.mutex.Lock()
	w.pending.Add(item)
	w.mutex.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watcher) readLoop() {
	defer close(w.readDone)

	for !w.flag.IsClosed() {
		event, ok, err := w.request.readEdgeEvent(WatcherPollTimeout)
		if err != nil {
			// Fail-stop: report the failure once and terminate. The
			// caller has to watch again to restart.
			if !w.flag.IsClosed() {
				w.enqueue(watchItem{err: &WatchError{Offset: w.offset, Cause: err}})
				w.flag.Close()
			}
			return
		}

		if !ok {
			// Timeout, loop around and re-check the flag.
			continue
		}

		w.enqueue(watchItem{value: boolToValue(event.Rising)})
	}
}

func (w *watcher) dispatchLoop() {
	defer close(w.dispatchDone)

	for {
		w.mutex.Lock()
		var item watchItem
		have := w.pending.Length() > 0
		if have {
			item = w.pending.Remove().(watchItem)
		}
		w.mutex.Unlock()

		if have {
			w.deliver(item.value, item.err)
			continue
		}

		select {
		case <-w.wake:
		case <-w.flag.Chan():
			w.mutex.Lock()
			empty := w.pending.Length() == 0
			w.mutex.Unlock()

			if empty {
				return
			}
		}
	}
}

// stop requests the loops to exit and blocks until both have. It is
// safe to call multiple times and from the fail-stop path.
func (w *watcher) stop() {
	w.flag.Close()
	<-w.readDone
	<-w.dispatchDone
}

// stopped reports whether the watcher has terminated, either through
// stop or through the fail-stop path. A stopped watcher never delivers
// again and has to be replaced.
func (w *watcher) stopped() bool {
	return w.flag.IsClosed()
}
