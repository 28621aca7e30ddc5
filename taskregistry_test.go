package quizsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskRegistry(t *testing.T) {
	r := newTaskRegistry()
	assert.True(t, r.IsEmpty())

	r.Add(&generationTask{id: "a"})
	r.Add(&generationTask{id: "b"})
	r.Add(&generationTask{id: "a"})
	assert.Equal(t, 2, r.Size())
	assert.Equal(t, "a", r.Get("a").id)
	assert.Nil(t, r.Get("zzz"))

	all := r.All()
	assert.Equal(t, "a", all[0].id)
	assert.Equal(t, "b", all[1].id)

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, "b", r.All()[0].id)
}
