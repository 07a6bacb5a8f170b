package models

// WindowSize is how many samples each rolling window keeps.
const WindowSize = 20

// Point is one sample on a time series; X is the logical time it was taken at.
type Point struct {
	X float64
	Y float64
}

// Window is a fixed-size FIFO of points. When full the oldest point is
// overwritten first.
type Window struct {
	data  []Point
	head  int
	count int
	size  int
}

// NewWindow creates a window holding at most size points.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = WindowSize
	}
	return &Window{
		data: make([]Point, size),
		size: size,
	}
}

// Push appends a point, evicting the oldest when the window is full.
func (w *Window) Push(x, y float64) {
	w.data[w.head] = Point{X: x, Y: y}
	w.head = (w.head + 1) % w.size
	if w.count < w.size {
		w.count++
	}
}

// Len returns the number of stored points.
func (w *Window) Len() int {
	return w.count
}

// Cap returns the maximum number of points.
func (w *Window) Cap() int {
	return w.size
}

// Points returns the stored points oldest first.
func (w *Window) Points() []Point {
	if w.count == 0 {
		return nil
	}

	out := make([]Point, w.count)
	// head points at the next write slot, so the oldest value sits count slots behind it.
	start := (w.head - w.count + w.size) % w.size
	for i := 0; i < w.count; i++ {
		out[i] = w.data[(start+i)%w.size]
	}
	return out
}

// Values returns just the Y values, oldest first.
func (w *Window) Values() []float64 {
	points := w.Points()
	if points == nil {
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Y
	}
	return out
}

// Last returns the newest point, if any.
func (w *Window) Last() (Point, bool) {
	if w.count == 0 {
		return Point{}, false
	}
	return w.data[(w.head-1+w.size)%w.size], true
}
