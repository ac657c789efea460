// vdp_queue.go - [VDP] multi-producer single-consumer event queue.
//
// Grounded on spec.md section 4.5.3/5 directly: the CPU thread posts
// rendering and lifecycle events into a channel-backed queue that a
// single worker goroutine drains, serializing frame control against
// the renderer. VRAM/CRAM/register writes bypass this queue entirely
// (bus_map.go applies them synchronously through VDP1/VDP2's
// mutex-guarded accessors instead); program order on the CPU thread
// plus the mutexes already guarantee a draw event posted after a write
// observes it, so queueing the write itself would only add latency.
// The done-channel/stop-function worker lifecycle shape follows
// CoprocWorker in
// _examples/IntuitionAmiga-IntuitionEngine/coprocessor_manager.go; the
// worker goroutine itself is owned by an errgroup.Group so an early
// return surfaces as an error from VDP.Stop (Machine.Close) instead of
// vanishing silently. Starting the worker cannot fail: VDP.Start always
// returns nil, so NewMachine never reports a worker error.

package saturn

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// VDPEventKind enumerates the event stream spec.md section 4.5.3 names.
type VDPEventKind uint8

const (
	VDPReset VDPEventKind = iota
	VDPOddField
	VDPVDP1Erase
	VDPVDP1Swap
	VDPVDP1BeginFrame
	VDPDrawLine
	VDPEndFrame
	VDPPreSave
	VDPPostLoad
	VDPShutdown
)

// VDPEvent is one queued producer-side event. Line carries DrawLine's
// scanline index; Flag carries OddField's interlace parity.
type VDPEvent struct {
	Kind VDPEventKind
	Line int
	Flag bool
}

// vdpEventQueue is the single channel the CPU thread posts rendering
// and lifecycle events into; the worker goroutine drains it in order.
type vdpEventQueue struct {
	ch chan []VDPEvent

	renderFinished chan struct{}
	bufferSwapped  chan struct{}
}

func newVDPEventQueue() *vdpEventQueue {
	return &vdpEventQueue{
		ch:             make(chan []VDPEvent, 256),
		renderFinished: make(chan struct{}, 1),
		bufferSwapped:  make(chan struct{}, 1),
	}
}

func (q *vdpEventQueue) post(ev VDPEvent) {
	q.ch <- []VDPEvent{ev}
}

// signalRenderFinished and signalBufferSwapped are sticky: a producer
// that calls waitRenderFinished before the worker signals still
// receives the next signal rather than blocking forever on a missed
// one, since the channel is buffered to depth 1 and only the waiting
// producer drains it.
func (q *vdpEventQueue) signalRenderFinished() {
	select {
	case q.renderFinished <- struct{}{}:
	default:
	}
}

func (q *vdpEventQueue) signalBufferSwapped() {
	select {
	case q.bufferSwapped <- struct{}{}:
	default:
	}
}

func (q *vdpEventQueue) waitRenderFinished() { <-q.renderFinished }
func (q *vdpEventQueue) waitBufferSwapped()  { <-q.bufferSwapped }

// startWorker launches the single consumer goroutine under an
// errgroup so its lifecycle is observable: Stop joins the goroutine
// and returns any error it produced.
func (q *vdpEventQueue) startWorker(handle func(VDPEvent)) (stop func() error) {
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		for {
			select {
			case batch, ok := <-q.ch:
				if !ok {
					return nil
				}
				for _, ev := range batch {
					handle(ev)
					if ev.Kind == VDPShutdown {
						return nil
					}
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	return func() error {
		q.ch <- []VDPEvent{{Kind: VDPShutdown}}
		close(q.ch)
		return g.Wait()
	}
}
