package pose

import "fmt"

// FrameWindow maintains a bounded sliding window of the most recent frames
// for one session. It is a fixed-capacity ring buffer: when full, pushing a
// new frame evicts exactly the oldest one.
//
// A FrameWindow is owned by a single session and is not safe for concurrent
// use; the session's worker processes observations strictly in arrival order.
type FrameWindow struct {
	frames   []*Frame
	capacity int
	head     int // next write position
	size     int // current number of frames stored
}

// WindowState is the result of offering a frame to the window.
type WindowState struct {
	// Frames holds the window contents oldest to newest.
	Frames []*Frame
	// Full is true iff the window holds exactly its capacity of frames.
	Full bool
}

// NewFrameWindow creates a frame window with the given capacity. Capacity
// must be a positive integer.
func NewFrameWindow(capacity int) (*FrameWindow, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("frame window capacity must be positive, got %d", capacity)
	}
	return &FrameWindow{
		frames:   make([]*Frame, capacity),
		capacity: capacity,
	}, nil
}

// Push offers a frame to the window. A frame with no joint positions carries
// no signal and is dropped without changing the window. Otherwise the frame
// is appended, evicting the oldest frame if the window is at capacity.
func (w *FrameWindow) Push(f *Frame) WindowState {
	if f == nil || len(f.Joints) == 0 {
		return w.state()
	}

	w.frames[w.head] = f
	w.head = (w.head + 1) % w.capacity
	if w.size < w.capacity {
		w.size++
	}
	return w.state()
}

func (w *FrameWindow) state() WindowState {
	return WindowState{
		Frames: w.Frames(),
		Full:   w.size == w.capacity,
	}
}

// Frames returns the window contents oldest to newest.
func (w *FrameWindow) Frames() []*Frame {
	if w.size == 0 {
		return nil
	}
	out := make([]*Frame, w.size)
	for i := 0; i < w.size; i++ {
		idx := (w.head - w.size + i + w.capacity) % w.capacity
		out[i] = w.frames[idx]
	}
	return out
}

// Size returns the current number of frames in the window.
func (w *FrameWindow) Size() int { return w.size }

// Capacity returns the fixed window capacity.
func (w *FrameWindow) Capacity() int { return w.capacity }

// Full reports whether the window holds exactly its capacity of frames.
func (w *FrameWindow) Full() bool { return w.size == w.capacity }
