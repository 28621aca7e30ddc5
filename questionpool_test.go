package quizsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionPoolFIFO(t *testing.T) {
	qp := NewQuestionPool()
	assert.True(t, qp.IsEmpty())
	assert.Nil(t, qp.Get())

	a := &Question{ID: "a"}
	b := &Question{ID: "b"}
	c := &Question{}
	qp.Add(a)
	qp.Add(b)
	qp.Add(c)
	qp.Add(a) // re-adding does not queue twice
	require.Equal(t, 3, qp.Size())
	assert.NotEmpty(t, c.ID)

	assert.Same(t, a, qp.Get())
	qp.Remove("b")
	assert.Same(t, c, qp.Get())
	assert.True(t, qp.IsEmpty())
}

func TestQuestionPoolDrain(t *testing.T) {
	qp := NewQuestionPool()
	for _, id := range []string{"1", "2", "3"} {
		qp.Add(&Question{ID: id})
	}
	drained := qp.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, "1", drained[0].ID)
	assert.Equal(t, "3", drained[2].ID)
	assert.Zero(t, qp.Size())

	qp.Add(&Question{ID: "4"})
	assert.Equal(t, "4", qp.Get().ID)
}
