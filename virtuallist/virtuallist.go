// Package virtuallist computes the visible window of a large, scrollable list
// so that callers only render the rows that intersect the viewport.
//
// A List works in either fixed mode (every row has the same height) or
// variable mode (a HeightFunc reports each row's height). The visible range,
// the leading offset and the total extent are derived on demand from the
// current scroll position; nothing derived is cached between calls.
package virtuallist

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultItemHeight is used in fixed mode when no height is configured.
	DefaultItemHeight = 80
	// DefaultContainerHeight is the viewport height used until a resize.
	DefaultContainerHeight = 400
	// DefaultOverscan is the number of extra rows rendered past each edge.
	DefaultOverscan = 5
	// DefaultDebounce is the quiet period after which scrolling is considered over.
	DefaultDebounce = 150 * time.Millisecond
)

// HeightFunc reports the rendered height of item at index.
type HeightFunc[T any] func(item T, index int) float64

// Identifier is implemented by items that carry a stable identity.
type Identifier interface {
	ID() string
}

// Viewport is the scrollable container a List drives.
type Viewport interface {
	ScrollTop() float64
	SetScrollTop(offset float64)
}

// Range is a half-open index range [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// VisibleItem is one row of the rendered window.
type VisibleItem[T any] struct {
	Item  T      `json:"item"`
	Index int    `json:"index"`
	Key   string `json:"key"`
}

type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Option configures a List.
type Option[T any] func(*List[T])

// WithItemHeight sets the fixed row height. Non-positive values are ignored.
func WithItemHeight[T any](h float64) Option[T] {
	return func(l *List[T]) {
		if h > 0 {
			l.itemHeight = h
		}
	}
}

// WithContainerHeight sets the viewport height.
func WithContainerHeight[T any](h float64) Option[T] {
	return func(l *List[T]) { l.containerHeight = h }
}

// WithOverscan sets how many rows are rendered beyond each viewport edge.
func WithOverscan[T any](n int) Option[T] {
	return func(l *List[T]) {
		if n >= 0 {
			l.overscan = n
		}
	}
}

// WithHeightFunc switches the list to variable-height mode.
func WithHeightFunc[T any](fn HeightFunc[T]) Option[T] {
	return func(l *List[T]) { l.heightFn = fn }
}

// WithDebounce sets the scroll quiet period.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(l *List[T]) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// WithOnScrollEnd registers a callback invoked each time scrolling settles.
func WithOnScrollEnd[T any](fn func()) Option[T] {
	return func(l *List[T]) { l.onScrollEnd = fn }
}

// List is a windowed view over a caller-owned item slice.
type List[T any] struct {
	mu sync.Mutex

	items           []T
	itemHeight      float64
	containerHeight float64
	overscan        int
	heightFn        HeightFunc[T]
	debounce        time.Duration
	onScrollEnd     func()

	scrollTop   float64
	isScrolling bool
	timer       stopper
	timerSeq    uint64
	after       afterFunc
	viewport    Viewport
	closed      bool
}

// New creates a List over items.
func New[T any](items []T, opts ...Option[T]) *List[T] {
	l := &List[T]{
		items:           items,
		itemHeight:      DefaultItemHeight,
		containerHeight: DefaultContainerHeight,
		overscan:        DefaultOverscan,
		debounce:        DefaultDebounce,
		after:           realAfterFunc,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetItems replaces the item sequence. The scroll position is kept.
func (l *List[T]) SetItems(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// SetContainerHeight records a viewport resize.
func (l *List[T]) SetContainerHeight(h float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.containerHeight = h
}

// ContainerHeight returns the current viewport height.
func (l *List[T]) ContainerHeight() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.containerHeight
}

// Attach binds the list to a viewport used by the ScrollTo* operations.
func (l *List[T]) Attach(v Viewport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewport = v
}

// Detach unbinds the viewport.
func (l *List[T]) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewport = nil
}

// ScrollTop returns the last offset reported through HandleScroll.
func (l *List[T]) ScrollTop() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scrollTop
}

// IsScrolling reports whether a scroll event arrived within the debounce window.
func (l *List[T]) IsScrolling() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isScrolling
}

// TotalHeight returns the summed height of every item.
func (l *List[T]) TotalHeight() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalHeight()
}

// VisibleRange returns the window for the current scroll position.
func (l *List[T]) VisibleRange() Range {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rangeAt(l.scrollTop)
}

// RangeAt returns the window for an arbitrary scroll offset without
// touching the list state.
func (l *List[T]) RangeAt(scrollTop float64) Range {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rangeAt(scrollTop)
}

// VisibleItems materializes the rows of the current window.
func (l *List[T]) VisibleItems() []VisibleItem[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.rangeAt(l.scrollTop)
	out := make([]VisibleItem[T], 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		item := l.items[i]
		out = append(out, VisibleItem[T]{
			Item:  item,
			Index: i,
			Key:   itemKey(item, i, i-r.Start),
		})
	}
	return out
}

// OffsetY returns the distance from the top of the list to the first
// rendered row.
func (l *List[T]) OffsetY() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offsetOf(l.rangeAt(l.scrollTop).Start)
}

// ItemOffset returns the distance from the top of the list to item index.
func (l *List[T]) ItemOffset(index int) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offsetOf(index)
}

// HandleScroll records a scroll event and restarts the debounce timer.
func (l *List[T]) HandleScroll(offset float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if offset < 0 || math.IsNaN(offset) {
		offset = 0
	}
	if math.IsInf(offset, 1) {
		offset = l.totalHeight()
	}
	l.scrollTop = offset
	l.isScrolling = true

	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerSeq++
	seq := l.timerSeq
	l.timer = l.after(l.debounce, func() { l.scrollSettled(seq) })
}

func (l *List[T]) scrollSettled(seq uint64) {
	l.mu.Lock()
	// a stale timer can still fire if Stop raced with expiry
	if l.closed || seq != l.timerSeq || !l.isScrolling {
		l.mu.Unlock()
		return
	}
	l.isScrolling = false
	l.timer = nil
	cb := l.onScrollEnd
	l.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// ScrollToItem moves the attached viewport so that index is at the top.
func (l *List[T]) ScrollToItem(index int) {
	l.mu.Lock()
	v := l.viewport
	target := l.offsetOf(index)
	l.mu.Unlock()

	if v != nil {
		v.SetScrollTop(target)
	}
}

// ScrollToTop moves the attached viewport to offset 0.
func (l *List[T]) ScrollToTop() {
	l.mu.Lock()
	v := l.viewport
	l.mu.Unlock()

	if v != nil {
		v.SetScrollTop(0)
	}
}

// ScrollToBottom moves the attached viewport to the total extent.
func (l *List[T]) ScrollToBottom() {
	l.mu.Lock()
	v := l.viewport
	target := l.totalHeight()
	l.mu.Unlock()

	if v != nil {
		v.SetScrollTop(target)
	}
}

// Close cancels the pending debounce timer. The list must not be scrolled
// afterwards; further HandleScroll calls are ignored.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.closed = true
	l.viewport = nil
}

func (l *List[T]) heightAt(i int) float64 {
	if l.heightFn == nil {
		return l.itemHeight
	}
	h := l.heightFn(l.items[i], i)
	if h < 0 || math.IsNaN(h) {
		return 0
	}
	return h
}

func (l *List[T]) totalHeight() float64 {
	if l.heightFn == nil {
		return float64(len(l.items)) * l.itemHeight
	}
	var total float64
	for i := range l.items {
		total += l.heightAt(i)
	}
	return total
}

func (l *List[T]) offsetOf(index int) float64 {
	if index <= 0 {
		return 0
	}
	if l.heightFn == nil {
		return float64(index) * l.itemHeight
	}
	if index > len(l.items) {
		index = len(l.items)
	}
	var offset float64
	for i := 0; i < index; i++ {
		offset += l.heightAt(i)
	}
	return offset
}

func (l *List[T]) rangeAt(scrollTop float64) Range {
	n := len(l.items)
	if n == 0 {
		return Range{}
	}
	if scrollTop < 0 || math.IsNaN(scrollTop) {
		scrollTop = 0
	}
	if math.IsInf(scrollTop, 1) {
		scrollTop = l.totalHeight()
	}
	if l.heightFn == nil {
		return l.fixedRange(n, scrollTop)
	}
	return l.variableRange(n, scrollTop)
}

func (l *List[T]) fixedRange(n int, scrollTop float64) Range {
	// keeps the float to int conversions below in range
	scrollTop = min(scrollTop, float64(n)*l.itemHeight)
	first := int(math.Floor(scrollTop / l.itemHeight))
	if first > n-1 {
		first = n - 1
	}
	start := max(0, first-l.overscan)

	end := n
	if rawEnd := math.Ceil((scrollTop + l.containerHeight) / l.itemHeight); rawEnd < float64(n) {
		end = min(n, int(rawEnd)+l.overscan)
	}
	if end <= start {
		end = min(n, start+1)
	}
	return Range{Start: start, End: end}
}

func (l *List[T]) variableRange(n int, scrollTop float64) Range {
	first := n - 1
	var acc float64
	for i := 0; i < n; i++ {
		h := l.heightAt(i)
		if acc+h > scrollTop {
			first = i
			break
		}
		acc += h
	}
	start := max(0, first-l.overscan)

	end := n
	acc = 0
	for i := start; i < n; i++ {
		acc += l.heightAt(i)
		if acc > l.containerHeight {
			end = min(n, i+l.overscan+1)
			break
		}
	}
	return Range{Start: start, End: end}
}

func itemKey[T any](item T, index, relative int) string {
	if id, ok := any(item).(Identifier); ok {
		if s := id.ID(); s != "" {
			return fmt.Sprintf("%d-%s", index, s)
		}
	}
	return strconv.Itoa(index) + "-" + strconv.Itoa(relative)
}
