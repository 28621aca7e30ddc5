package quizsystem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenDB(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.CreateTables(ctx))
	require.NoError(t, db.CreateTables(ctx), "CreateTables is idempotent")
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestBank(t *testing.T, name string, created time.Time) *QuestionBank {
	t.Helper()
	bank, err := NewQuestionBank(name, "desc", []Question{
		{Type: TypeSingleChoice, Question: "Q1", Options: []string{"a", "b"}, Answer: "A", Explanation: "because"},
		{Type: TypeTrueFalse, Question: "Q2", Answer: "true", Difficulty: "easy"},
		{Type: TypeShortAnswer, Question: "Q3", Answer: "text"},
	})
	require.NoError(t, err)
	bank.CreatedAt = created
	return bank
}

func TestOpenDBDrivers(t *testing.T) {
	_, err := OpenDB(context.Background(), "oracle", "")
	assert.Error(t, err)

	db, err := OpenDB(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DriverSQLite, db.Driver())
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestBankRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := time.UnixMilli(time.Now().UnixMilli())
	bank := newTestBank(t, "Biology", created)
	require.NoError(t, db.CreateBank(ctx, bank))

	got, err := db.GetBank(ctx, bank.ID)
	require.NoError(t, err)
	assert.Equal(t, bank.Name, got.Name)
	assert.Equal(t, "desc", got.Description)
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Questions, 3)
	assert.Equal(t, bank.Questions, got.Questions)
}

func TestCreateBankRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bank := newTestBank(t, "Dup", time.Now())
	bank.Questions[1].ID = bank.Questions[0].ID
	require.Error(t, db.CreateBank(ctx, bank))

	_, err := db.GetBank(ctx, bank.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDeleteBanks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older := newTestBank(t, "Older", time.Now().Add(-time.Hour))
	newer := newTestBank(t, "Newer", time.Now())
	require.NoError(t, db.CreateBank(ctx, older))
	require.NoError(t, db.CreateBank(ctx, newer))

	banks, err := db.ListBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "Newer", banks[0].Name)
	assert.Equal(t, 3, banks[0].QuestionCount)

	require.NoError(t, db.DeleteBank(ctx, older.ID))
	assert.ErrorIs(t, db.DeleteBank(ctx, older.ID), ErrNotFound)
	_, err = db.GetBank(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	banks, err = db.ListBanks(ctx)
	require.NoError(t, err)
	assert.Len(t, banks, 1)
}

func TestResults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	empty, err := db.ListResults(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	bank := newTestBank(t, "Quiz", time.Now())
	for i := 0; i < 3; i++ {
		quiz, err := StartQuiz(bank, QuizConfig{}, nil)
		require.NoError(t, err)
		require.NoError(t, quiz.SaveAnswer(0, "A"))
		ev := MockEvaluation(quiz.Questions, quiz.Answers)
		result := FinishQuiz(quiz, &ev)
		result.EndTime = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.SaveResult(ctx, result))
	}

	results, err := db.ListResults(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].EndTime.After(results[1].EndTime))
	assert.Equal(t, "Quiz", results[0].BankName)
	assert.Len(t, results[0].Questions, 3)
	require.NotNil(t, results[0].Evaluation)
	assert.Equal(t, results[0].Evaluation.OverallScore, results[0].Score)
	assert.Equal(t, "A", results[0].Answers[0].Answer)
}

func TestOptionsJSON(t *testing.T) {
	s, err := OptionsToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	opts, err := JSONToOptions(s)
	require.NoError(t, err)
	assert.Nil(t, opts)

	_, err = JSONToOptions("{")
	assert.Error(t, err)
}
