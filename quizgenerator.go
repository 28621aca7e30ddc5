package quizsystem

import (
	"context"
	"errors"
)

// maxGenerationRounds bounds how often the AI is asked to top up a short batch
const maxGenerationRounds = 3

// QuizGenerator drives the maker, checker and dedup stages until the
// requested number of questions has been accepted
type QuizGenerator struct {
	maker   *QuestionMaker
	checker *QuestionChecker
	dedup   *QuestionDedup
	pool    *QuestionPool

	transcript *LLMLogger
}

// NewQuizGenerator creates a new quiz generator for cfg's question types
func NewQuizGenerator(ai Completer, cfg QuestionConfig) *QuizGenerator {
	return &QuizGenerator{
		maker:   NewQuestionMaker(ai),
		checker: NewQuestionChecker(cfg.Types),
		dedup:   NewQuestionDedup(),
		pool:    NewQuestionPool(),
	}
}

// SetTranscript records validation and dedup outcomes to l
func (qg *QuizGenerator) SetTranscript(l *LLMLogger) {
	qg.transcript = l
}

// GenerateQuestions generates, validates and deduplicates questions from
// files. It may return fewer than cfg.Count questions, including none.
func (qg *QuizGenerator) GenerateQuestions(ctx context.Context, files []UploadedFile, cfg QuestionConfig) ([]Question, error) {
	log := componentLogger("generator")
	log.Info().Int("count", cfg.Count).Int("documents", len(files)).Msg("starting question generation")

	accepted := make([]Question, 0, cfg.Count)
	for round := 1; round <= maxGenerationRounds && len(accepted) < cfg.Count; round++ {
		need := cfg.Count - len(accepted)
		questions, err := qg.maker.GenerateQuestions(ctx, files, cfg, need)
		if err != nil {
			// later rounds only top up; keep what earlier rounds produced
			if round == 1 || ctx.Err() != nil || !errors.Is(err, ErrResponseFormat) {
				return nil, err
			}
			log.Warn().Err(err).Int("round", round).Msg("top-up batch unusable")
			break
		}

		for i := range questions {
			qg.pool.Add(&questions[i])
		}

		processed := qg.processPool()
		accepted = append(accepted, processed.accepted...)

		log.Info().
			Int("round", round).
			Int("accepted", len(processed.accepted)).
			Int("rejected", processed.rejected).
			Int("revised", processed.revised).
			Int("duplicates", processed.duplicates).
			Msg("processed batch")

		if len(processed.accepted) == 0 {
			break
		}
	}

	if len(accepted) > cfg.Count {
		accepted = accepted[:cfg.Count]
	}
	log.Info().Int("questions", len(accepted)).Msg("question generation complete")
	return accepted, nil
}

// processResult holds the results of processing questions from the pool
type processResult struct {
	accepted   []Question
	rejected   int
	revised    int
	duplicates int
}

func (qg *QuizGenerator) processPool() processResult {
	result := processResult{}

	for !qg.pool.IsEmpty() {
		question := qg.pool.Get()
		if question == nil {
			break
		}

		validation := qg.checker.CheckQuestion(question)
		qg.transcript.LogQuestionResult(question.ID, validation.Action, validation.Reason)
		switch validation.Action {
		case ActionReject:
			VerboseLog("Rejected question %s: %s", question.ID, validation.Reason)
			result.rejected++
			continue
		case ActionRevise:
			// revisions go back through the checker
			VerboseLog("Revised question %s: %s", question.ID, validation.Reason)
			result.revised++
			qg.pool.Add(validation.RevisedQuestion)
			continue
		}

		dup := qg.dedup.CheckDuplicate(question)
		qg.transcript.LogDedupResult(question.ID, dup)
		if dup.IsDuplicate {
			VerboseLog("Duplicate question %s of %s: %s", question.ID, dup.DuplicateID, dup.Reason)
			result.duplicates++
			continue
		}
		result.accepted = append(result.accepted, *question)
	}

	return result
}
