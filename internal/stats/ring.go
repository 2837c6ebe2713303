package stats

// ring keeps the most recent n strings.
type ring struct {
	buf     []string
	next    int
	full    bool
	dropped int
}

func newRing(n int) *ring {
	return &ring{buf: make([]string, n)}
}

func (r *ring) push(s string) {
	if len(r.buf) == 0 {
		r.dropped++
		return
	}
	if r.full {
		r.dropped++
	}
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// items returns the kept strings, oldest first.
func (r *ring) items() []string {
	if !r.full {
		if r.next == 0 {
			return nil
		}
		return append([]string(nil), r.buf[:r.next]...)
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
