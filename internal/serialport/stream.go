package serialport

import (
	"io"
)

// StreamLink adapts a blocking reader (stdin, a pipe) to Link. A goroutine
// moves received chunks into a buffered channel, playing the part of a UART
// receive buffer; it touches nothing else.
type StreamLink struct {
	w       io.Writer
	closer  io.Closer
	rx      chan []byte
	pending []byte
}

var _ Link = (*StreamLink)(nil)

func NewStreamLink(r io.Reader, w io.Writer) *StreamLink {
	s := &StreamLink{
		w:  w,
		rx: make(chan []byte, 64),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	go s.pump(r)
	return s
}

func (s *StreamLink) pump(r io.Reader) {
	defer close(s.rx)
	for {
		buf := make([]byte, 256)
		n, err := r.Read(buf)
		if n > 0 {
			s.rx <- buf[:n]
		}
		if err != nil {
			return
		}
	}
}

// ReadAvailable returns io.EOF once the reader has ended and every received
// byte has been handed out.
func (s *StreamLink) ReadAvailable(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			select {
			case chunk, ok := <-s.rx:
				if !ok {
					if n > 0 {
						return n, nil
					}
					return 0, io.EOF
				}
				s.pending = chunk
			default:
				return n, nil
			}
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

func (s *StreamLink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *StreamLink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
