package intake

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedListCap(t *testing.T) {
	l := NewBoundedList(25)
	for i := 1; i <= 25; i++ {
		require.NoError(t, l.Add(fmt.Sprintf("2023-01-%02d", i)))
	}
	assert.True(t, l.Full())

	err := l.Add("2023-02-01")
	assert.ErrorIs(t, err, ErrListFull)
	assert.Equal(t, 25, l.Len())
}

func TestBoundedListDuplicate(t *testing.T) {
	l := NewBoundedList(15, "2023-01-01")
	assert.ErrorIs(t, l.Add("2023-01-01"), ErrDuplicate)
	assert.Equal(t, []string{"2023-01-01"}, l.Values())
}

func TestBoundedListRemove(t *testing.T) {
	l := NewBoundedList(5, "a", "b", "c", "d")

	l.Remove(1)
	assert.Equal(t, []string{"a", "c", "d"}, l.Values())

	l.Remove(-1)
	l.Remove(3)
	assert.Equal(t, []string{"a", "c", "d"}, l.Values())
}

func TestBoundedListCopiesInput(t *testing.T) {
	items := []string{"a", "b"}
	l := NewBoundedList(3, items...)
	require.NoError(t, l.Add("c"))
	items[0] = "z"
	assert.Equal(t, []string{"a", "b", "c"}, l.Values())
}
