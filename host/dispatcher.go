package host

// Dispatcher keeps listener registrations and pending frame requests.
// Hosts embed it and feed it events from their own loop.
type Dispatcher struct {
	nextListener int
	pointer      []listener[PointerEvent]
	resize       []listener[ResizeEvent]

	nextFrame FrameID
	frames    []frameRequest
}

type listener[E any] struct {
	id int
	fn func(E)
}

type frameRequest struct {
	id FrameID
	fn FrameFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func subscribe[E any](d *Dispatcher, list *[]listener[E], fn func(E)) func() {
	d.nextListener++
	id := d.nextListener
	*list = append(*list, listener[E]{id: id, fn: fn})

	return func() {
		for i, l := range *list {
			if l.id == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

// OnPointerMove registers a pointer listener.
func (d *Dispatcher) OnPointerMove(fn func(PointerEvent)) func() {
	return subscribe(d, &d.pointer, fn)
}

// OnResize registers a resize listener.
func (d *Dispatcher) OnResize(fn func(ResizeEvent)) func() {
	return subscribe(d, &d.resize, fn)
}

// EmitPointer delivers a pointer event to every listener.
func (d *Dispatcher) EmitPointer(ev PointerEvent) {
	for _, l := range append([]listener[PointerEvent](nil), d.pointer...) {
		l.fn(ev)
	}
}

// EmitResize delivers a resize event to every listener.
func (d *Dispatcher) EmitResize(ev ResizeEvent) {
	for _, l := range append([]listener[ResizeEvent](nil), d.resize...) {
		l.fn(ev)
	}
}

// RequestFrame queues fn for the next RunFrame.
func (d *Dispatcher) RequestFrame(fn FrameFunc) FrameID {
	d.nextFrame++
	d.frames = append(d.frames, frameRequest{id: d.nextFrame, fn: fn})
	return d.nextFrame
}

// CancelFrame removes a pending request.
func (d *Dispatcher) CancelFrame(id FrameID) {
	for i, f := range d.frames {
		if f.id == id {
			d.frames = append(d.frames[:i], d.frames[i+1:]...)
			return
		}
	}
}

// RunFrame runs the requests pending at call time. Requests made by the
// callbacks themselves wait for the next RunFrame. Returns the number of
// callbacks run.
func (d *Dispatcher) RunFrame(nowMs float64) int {
	pending := d.frames
	d.frames = nil
	for _, f := range pending {
		f.fn(nowMs)
	}
	return len(pending)
}

// PointerListeners returns the number of registered pointer listeners.
func (d *Dispatcher) PointerListeners() int { return len(d.pointer) }

// ResizeListeners returns the number of registered resize listeners.
func (d *Dispatcher) ResizeListeners() int { return len(d.resize) }

// PendingFrames returns the number of queued frame requests.
func (d *Dispatcher) PendingFrames() int { return len(d.frames) }
