package fractal

import "github.com/san-kum/dragonsim/internal/frame"

// Swapchain holds the two buffers a run alternates between: the committed
// source and the destination being written.
type Swapchain struct {
	bufs [2]*frame.Buffer
	cur  int
}

func NewSwapchain(size frame.Size) (*Swapchain, error) {
	a, err := frame.NewBuffer(size.W, size.H)
	if err != nil {
		return nil, err
	}
	b, err := frame.NewBuffer(size.W, size.H)
	if err != nil {
		return nil, err
	}
	return &Swapchain{bufs: [2]*frame.Buffer{a, b}}, nil
}

func (s *Swapchain) Src() *frame.Buffer { return s.bufs[s.cur] }
func (s *Swapchain) Dst() *frame.Buffer { return s.bufs[1-s.cur] }

// Flip makes the destination the new source.
func (s *Swapchain) Flip() { s.cur = 1 - s.cur }

// Reset clears both buffers and restores the initial order.
func (s *Swapchain) Reset() {
	s.cur = 0
	s.bufs[0].Fill(frame.Background)
	s.bufs[1].Fill(frame.Background)
}
