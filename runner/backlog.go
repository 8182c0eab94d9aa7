package runner

// backlog is a ring of the addresses of the most recently executed
// instructions.
type backlog struct {
	pcs []int
	n   int
}

const maxBacklog = 32

func (b *backlog) add(pc int) {
	if len(b.pcs) < maxBacklog {
		b.pcs = append(b.pcs, pc)
	} else {
		b.pcs[b.n] = pc
	}
	b.n = (b.n + 1) % maxBacklog
}

// entries returns the recorded addresses, oldest first.
func (b *backlog) entries() []int {
	if len(b.pcs) < maxBacklog {
		return append([]int(nil), b.pcs...)
	}
	return append(append([]int(nil), b.pcs[b.n:]...), b.pcs[:b.n]...)
}

func (b *backlog) reset() {
	b.pcs = b.pcs[:0]
	b.n = 0
}
