package stats

// Rolling tracks the mean of the present values among the last size
// entries pushed. Absent entries take a slot without contributing, so
// gaps shorten the effective window instead of counting as zero. Push and
// Mean run in constant time.
type Rolling struct {
	slots   []float64
	present []bool
	next    int
	filled  int
	sum     float64
	n       int
}

// NewRolling returns a Rolling over the last size entries. size must be
// at least 1.
func NewRolling(size int) *Rolling {
	return &Rolling{
		slots:   make([]float64, size),
		present: make([]bool, size),
	}
}

// Push appends x, or a gap when ok is false, evicting the oldest entry
// once the window is full.
func (r *Rolling) Push(x float64, ok bool) {
	if r.filled == len(r.slots) {
		if r.present[r.next] {
			r.sum -= r.slots[r.next]
			r.n--
		}
	} else {
		r.filled++
	}

	if !ok {
		x = 0
	}
	r.slots[r.next], r.present[r.next] = x, ok
	if ok {
		r.sum += x
		r.n++
	}
	if r.n == 0 {
		r.sum = 0
	}
	r.next = (r.next + 1) % len(r.slots)
}

// Mean returns the mean of the present values in the window. The second
// result is false when the window holds only gaps.
func (r *Rolling) Mean() (float64, bool) {
	if r.n == 0 {
		return 0, false
	}
	return r.sum / float64(r.n), true
}
