package gpiod

import (
	"fmt"
	"sync"
	"time"
)

type lineState int

const (
	stateUnconfigured lineState = iota
	stateExported
	stateWatching
)

// LineEventHandler receives watch deliveries. On an edge event err is
// nil and value holds the new logical level. On a watch failure err is
// the single *WatchError notification, after which the watcher has
// terminated.
type LineEventHandler func(value Value, err error)

// Line is the user facing handle of one offset. It owns at most one
// live request and at most one watcher, and rebuilds the request in
// place when its configuration changes.
type Line struct {
	chip   *Chip
	offset uint32

	mutex   sync.Mutex
	state   lineState
	config  *LineConfig
	cursor  *OffsetSettings
	request *Request
	watcher *watcher

	listenerMutex sync.Mutex
	listeners     []LineEventHandler

	shadowMutex     sync.Mutex
	shadowDirection Direction
	shadowEdge      Edge
	shadowValue     Value
}

func newLine(chip *Chip, offset uint32) *Line {
	config := NewLineConfig()

	return &Line{
		chip:   chip,
		offset: offset,
		config: config,
		cursor: config.SetOffset(offset),
	}
}

// Offset returns the offset this line addresses.
func (l *Line) Offset() uint32 {
	return l.offset
}

// export builds the first request of this line. Caller holds l.mutex.
func (l *Line) export() error {
	request, err := BuildRequest(l.chip, []uint32{l.offset}, l.config)
	if err != nil {
		return err
	}

	l.request = request
	l.state = stateExported
	l.refreshShadow()

	return nil
}

// rebuild replaces the live request with one built from the updated
// settings. A running watcher is stopped first and restarted on the
// new request afterwards, the registered listeners stay in place.
// Caller holds l.mutex.
func (l *Line) rebuild() error {
	wasWatching := l.state == stateWatching

	if wasWatching {
		l.watcher.stop()
		l.watcher = nil
	}

	l.request.Release()
	l.request = nil

	request, err := BuildRequest(l.chip, []uint32{l.offset}, l.config)
	if err != nil {
		// The old claim is already gone, the line falls back to
		// unconfigured rather than keeping a dangling state. The
		// listeners go with it, like in Unexport, so a later Watch
		// starts from a clean slate.
		l.state = stateUnconfigured

		if wasWatching {
			l.listenerMutex.Lock()
			l.listeners = nil
			l.listenerMutex.Unlock()
		}

		return err
	}

	l.request = request
	l.state = stateExported
	l.refreshShadow()

	if wasWatching {
		l.startWatcher()
	}

	return nil
}

// applyConfig exports an unconfigured line or rebuilds a live one.
// Caller holds l.mutex.
func (l *Line) applyConfig() error {
	if l.state == stateUnconfigured {
		return l.export()
	}
	return l.rebuild()
}

func (l *Line) startWatcher() {
	l.watcher = newWatcher(l.request, l.offset, l.dispatch)
	l.state = stateWatching
}

// dispatch runs on the watcher's dispatch goroutine. It deliberately
// avoids l.mutex: a rebuild may be waiting for the watcher to stop
// while holding it.
func (l *Line) dispatch(value Value, err error) {
	l.listenerMutex.Lock()
	listeners := make([]LineEventHandler, len(l.listeners))
	copy(listeners, l.listeners)
	l.listenerMutex.Unlock()

	if err == nil {
		l.setShadowValue(value)
	} else {
		l.chip.log.WithError(err).Errorf("Watcher on line %d failed", l.offset)
	}

	for _, handler := range listeners {
		handler(value, err)
	}
}

func (l *Line) refreshShadow() {
	settings := l.cursor.Settings()

	l.shadowMutex.Lock()
	l.shadowDirection = settings.Direction
	l.shadowEdge = settings.Edge
	l.shadowMutex.Unlock()
}

func (l *Line) setShadowValue(value Value) {
	l.shadowMutex.Lock()
	l.shadowValue = value
	l.shadowMutex.Unlock()
}

// SetDirection configures the direction and applies it to the line.
func (l *Line) SetDirection(direction Direction) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.cursor.SetDirection(direction); err != nil {
		return err
	}

	return l.applyConfig()
}

// SetEdge configures edge detection and applies it to the line.
func (l *Line) SetEdge(edge Edge) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.cursor.SetEdge(edge); err != nil {
		return err
	}

	return l.applyConfig()
}

// SetDrive configures the driver topology and applies it to the line.
func (l *Line) SetDrive(drive Drive) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.cursor.SetDrive(drive); err != nil {
		return err
	}

	return l.applyConfig()
}

// SetBias configures the pull resistor and applies it to the line.
func (l *Line) SetBias(bias Bias) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.cursor.SetBias(bias); err != nil {
		return err
	}

	return l.applyConfig()
}

// SetActiveLow configures logical inversion and applies it to the line.
func (l *Line) SetActiveLow(activeLow bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.cursor.SetActiveLow(activeLow)

	return l.applyConfig()
}

// SetDebouncePeriod configures the debounce period and applies it to
// the line.
func (l *Line) SetDebouncePeriod(period time.Duration) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.cursor.SetDebouncePeriod(period); err != nil {
		return err
	}

	return l.applyConfig()
}

// GetValue reads the logical value of the line. The line must be
// exported.
func (l *Line) GetValue() (Value, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.request == nil {
		return ValueLow, ErrorNotExported
	}

	value, err := l.request.GetValue(l.offset)
	if err == nil {
		l.setShadowValue(value)
	}

	return value, err
}

// SetValue writes the logical value of the line. The line must be
// exported and configured as output.
func (l *Line) SetValue(value Value) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.request == nil {
		return ErrorNotExported
	}

	err := l.request.SetValue(l.offset, value)
	if err == nil {
		l.setShadowValue(value)
	}

	return err
}

// Watch registers a handler for edge events and starts the watcher if
// it is not running yet. An unconfigured line is exported first with
// its current settings. Watching without edge detection is
// meaningless, so an edge mode of none is coerced to both. Calling
// Watch on a line that is already watching adds another listener, all
// registered listeners receive every delivered event. After a watch
// failure the watcher is not restarted automatically, calling Watch
// again replaces the terminated watcher. Handlers run on the watcher's
// dispatch goroutine and must not block: a blocked handler stalls
// further deliveries and makes Unwatch and reconfiguration wait.
func (l *Line) Watch(handler LineEventHandler) error {
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrorValidation)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.state == stateUnconfigured {
		if err := l.export(); err != nil {
			return err
		}
	}

	if l.cursor.Settings().Edge == EdgeNone {
		if err := l.cursor.SetEdge(EdgeBoth); err != nil {
			return err
		}
		if err := l.rebuild(); err != nil {
			return err
		}
	}

	if l.state == stateWatching && l.watcher.stopped() {
		// The watcher fail-stopped. It is already terminated, so the
		// join is immediate, and this Watch call starts its successor.
		l.watcher.stop()
		l.watcher = nil
		l.state = stateExported
	}

	l.listenerMutex.Lock()
	l.listeners = append(l.listeners, handler)
	l.listenerMutex.Unlock()

	if l.state != stateWatching {
		l.startWatcher()
	}

	return nil
}

// Unwatch stops the watcher and drops all listeners. It blocks until
// the watcher has fully stopped. Calling it on a line that is not
// watching is a no-op.
func (l *Line) Unwatch() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.state != stateWatching {
		return
	}

	l.watcher.stop()
	l.watcher = nil

	l.listenerMutex.Lock()
	l.listeners = nil
	l.listenerMutex.Unlock()

	l.state = stateExported
}

// Unexport stops any watcher and releases the request. The line
// returns to the unconfigured state but keeps its settings, the next
// setter or Watch exports it again. Calling it repeatedly is harmless.
func (l *Line) Unexport() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.state == stateWatching {
		l.watcher.stop()
		l.watcher = nil

		l.listenerMutex.Lock()
		l.listeners = nil
		l.listenerMutex.Unlock()
	}

	l.state = stateUnconfigured

	if l.request == nil {
		return nil
	}

	err := l.request.Release()
	l.request = nil

	return err
}

// Direction returns the last applied direction without a device round
// trip.
func (l *Line) Direction() Direction {
	l.shadowMutex.Lock()
	defer l.shadowMutex.Unlock()
	return l.shadowDirection
}

// EdgeMode returns the last applied edge mode without a device round
// trip.
func (l *Line) EdgeMode() Edge {
	l.shadowMutex.Lock()
	defer l.shadowMutex.Unlock()
	return l.shadowEdge
}

// LastValue returns the last value seen by GetValue, SetValue or the
// watcher, without a device round trip.
func (l *Line) LastValue() Value {
	l.shadowMutex.Lock()
	defer l.shadowMutex.Unlock()
	return l.shadowValue
}
