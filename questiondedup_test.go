package quizsystem

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDuplicateExact(t *testing.T) {
	qd := NewQuestionDedup()

	first := &Question{ID: "a", Type: TypeShortAnswer, Question: "What is a cell?"}
	assert.False(t, qd.CheckDuplicate(first).IsDuplicate)

	dup := &Question{ID: "b", Type: TypeFillBlank, Question: "  what is a CELL  "}
	res := qd.CheckDuplicate(dup)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "a", res.DuplicateID)
	assert.Equal(t, 1, qd.Len())
}

func TestCheckDuplicateNearWording(t *testing.T) {
	qd := NewQuestionDedup()
	qd.CheckDuplicate(&Question{ID: "a", Type: TypeTrueFalse, Question: "The mitochondria is the powerhouse of the cell"})

	near := &Question{ID: "b", Type: TypeTrueFalse, Question: "The mitochondrion is the powerhouse of the cell"}
	res := qd.CheckDuplicate(near)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "near-identical wording", res.Reason)

	// same wording under a different type is a different question
	other := &Question{ID: "c", Type: TypeShortAnswer, Question: "The mitochondrion is the powerhouse of the cell"}
	assert.False(t, qd.CheckDuplicate(other).IsDuplicate)

	distinct := &Question{ID: "d", Type: TypeTrueFalse, Question: "Ribosomes build proteins"}
	assert.False(t, qd.CheckDuplicate(distinct).IsDuplicate)
	assert.Equal(t, 3, qd.Len())
}

func TestDedupSeed(t *testing.T) {
	qd := NewQuestionDedup()
	qd.Seed([]Question{{ID: "old", Type: TypeShortAnswer, Question: "Define osmosis"}})

	res := qd.CheckDuplicate(&Question{ID: "new", Type: TypeShortAnswer, Question: "Define osmosis."})
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, "old", res.DuplicateID)
}

func TestDedupConcurrent(t *testing.T) {
	qd := NewQuestionDedup()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qd.CheckDuplicate(&Question{ID: fmt.Sprint(i), Type: TypeShortAnswer, Question: fmt.Sprintf("Question number %d about topic %d", i, i*7919)})
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, qd.Len(), 50)
	assert.Positive(t, qd.Len())
}
