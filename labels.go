package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
)

// labels is a list of named addresses sorted by address.
type labels []label

type label struct {
	addr int
	name string
}

func (l label) String() string { return fmt.Sprintf("%s (%d)", l.name, l.addr) }

func (ls labels) forAddr(addr int) (ll []label) {
	i := sort.Search(len(ls), func(i int) bool { return ls[i].addr >= addr })
	for ; i < len(ls) && ls[i].addr == addr; i++ {
		ll = append(ll, ls[i])
	}
	return ll
}

func (ls labels) withPrefix(prefix string) (ll []label) {
	for _, l := range ls {
		if strings.HasPrefix(l.name, prefix) {
			ll = append(ll, l)
		}
	}
	return ll
}

// resolve returns the label named s, or an unnamed label for s if it is a
// decimal address.
func (ls labels) resolve(s string) (label, bool) {
	for _, l := range ls {
		if l.name == s {
			return l, true
		}
	}
	addr, err := strconv.Atoi(s)
	if err != nil || addr < 0 {
		return label{}, false
	}
	if ll := ls.forAddr(addr); len(ll) > 0 {
		return ll[0], true
	}
	return label{addr: addr, name: s}, true
}

// readLabels reads a label file. A missing file has no labels.
func readLabels(file string) (labels, error) {
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseLabels(f)
}

// parseLabels parses lines of the form "addr name".
// Blank lines and lines starting with '#' are ignored.
func parseLabels(r io.Reader) (labels, error) {
	var (
		ls labels
		s  = bufio.NewScanner(r)
		n  = 0
	)
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Fields(line)
		if len(f) != 2 {
			return nil, fmt.Errorf("line %d: want \"addr label\", got %q", n, line)
		}
		addr, err := strconv.Atoi(f[0])
		if err != nil || addr < 0 {
			return nil, fmt.Errorf("line %d: invalid address %q", n, f[0])
		}
		ls = append(ls, label{addr: addr, name: f[1]})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(ls, func(i, j int) bool {
		return ls[i].addr < ls[j].addr
	})
	return ls, nil
}
