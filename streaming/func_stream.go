package streaming

import "io"

// FuncStream adapts a pair of closures to the Stream interface. Backend
// packages use it to wrap their SDK stream handles.
type FuncStream struct {
	RecvFunc  func() (Chunk, error)
	CloseFunc func() error
}

func (s *FuncStream) Recv() (Chunk, error) {
	return s.RecvFunc()
}

func (s *FuncStream) Close() error {
	if s.CloseFunc == nil {
		return nil
	}
	return s.CloseFunc()
}

// SliceStream replays a fixed chunk sequence. Mainly for tests and for
// backends whose SDK hands back a whole response at once.
type SliceStream struct {
	Chunks []Chunk
	pos    int
	closed bool
}

func (s *SliceStream) Recv() (Chunk, error) {
	if s.closed || s.pos >= len(s.Chunks) {
		return Chunk{}, io.EOF
	}
	c := s.Chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
