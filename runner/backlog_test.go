package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBacklog(t *testing.T) {
	var b backlog
	require.Empty(t, b.entries())

	b.add(1)
	b.add(2)
	require.Equal(t, []int{1, 2}, b.entries())

	for i := 0; i < maxBacklog+5; i++ {
		b.add(i)
	}
	got := b.entries()
	require.Len(t, got, maxBacklog)
	require.Equal(t, 5, got[0])
	require.Equal(t, maxBacklog+4, got[maxBacklog-1])

	b.reset()
	require.Empty(t, b.entries())
	b.add(9)
	require.Equal(t, []int{9}, b.entries())
}
