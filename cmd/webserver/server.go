package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"quizsystem"
	"quizsystem/virtuallist"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	sessionName  = "quiz-session"
	sessionQuiz  = "quiz_id"
	maxBodyBytes = 8 << 20
)

// Server serves the quiz JSON API
type Server struct {
	db         *quizsystem.DB
	store      sessions.Store
	generation *quizsystem.GenerationService
	evaluator  *quizsystem.Evaluator
	aiConfig   quizsystem.AIConfig
	log        zerolog.Logger

	mu      sync.Mutex
	quizzes map[string]*quizsystem.Quiz // in-progress quizzes by ID
}

// NewServer wires the API over its dependencies
func NewServer(db *quizsystem.DB, store sessions.Store, gen *quizsystem.GenerationService, ev *quizsystem.Evaluator, ai quizsystem.AIConfig) *Server {
	return &Server{
		db:         db,
		store:      store,
		generation: gen,
		evaluator:  ev,
		aiConfig:   ai,
		log:        quizsystem.Logger.With().Str("component", "webserver").Logger(),
		quizzes:    make(map[string]*quizsystem.Quiz),
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", s.handleListBanks)
			r.Post("/", s.handleCreateBank)
			r.Get("/{id}", s.handleGetBank)
			r.Delete("/{id}", s.handleDeleteBank)
			r.Get("/{id}/window", s.handleBankWindow)
		})

		r.Route("/generations", func(r chi.Router) {
			r.Post("/", s.handleStartGeneration)
			r.Get("/{id}", s.handleGenerationStatus)
			r.Delete("/{id}", s.handleCancelGeneration)
			r.Post("/{id}/bank", s.handleSaveGeneration)
		})

		r.Post("/quizzes", s.handleStartQuiz)
		r.Get("/quiz", s.handleCurrentQuiz)
		r.Post("/quiz/answers", s.handleSaveAnswer)
		r.Post("/quiz/finish", s.handleFinishQuiz)
		r.Get("/results", s.handleListResults)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var netErr *quizsystem.NetworkError
	switch {
	case errors.Is(err, quizsystem.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quizsystem.ErrUnsupportedProvider),
		errors.Is(err, quizsystem.ErrNotEnoughQuestions),
		errors.Is(err, quizsystem.ErrNoQuestions):
		return http.StatusBadRequest
	case errors.As(err, &netErr), errors.Is(err, quizsystem.ErrResponseFormat):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current":   s.aiConfig.Provider,
		"providers": quizsystem.Providers,
	})
}

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.db.ListBanks(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list banks")
		writeError(w, statusFor(err), "failed to list banks")
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

type createBankRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Questions   []quizsystem.Question `json:"questions"`
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.saveBank(w, r, req)
}

func (s *Server) saveBank(w http.ResponseWriter, r *http.Request, req createBankRequest) {
	bank, err := quizsystem.NewQuestionBank(req.Name, req.Description, req.Questions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.db.CreateBank(r.Context(), bank); err != nil {
		s.log.Error().Err(err).Msg("failed to create bank")
		writeError(w, statusFor(err), "failed to create bank")
		return
	}
	s.log.Info().Str("bank_id", bank.ID).Int("questions", len(bank.Questions)).Msg("bank created")
	writeJSON(w, http.StatusCreated, bank)
}

func (s *Server) handleGetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := s.db.GetBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (s *Server) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteBank(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// questionRow gives questions a stable list key
type questionRow struct {
	quizsystem.Question
}

func (q questionRow) ID() string { return q.Question.ID }

type windowResponse struct {
	Total       int                                    `json:"total"`
	TotalHeight float64                                `json:"total_height"`
	OffsetY     float64                                `json:"offset_y"`
	Range       virtuallist.Range                      `json:"range"`
	Items       []virtuallist.VisibleItem[questionRow] `json:"items"`
}

// handleBankWindow returns only the rows a client viewport of the given
// height needs at scrollTop
func (s *Server) handleBankWindow(w http.ResponseWriter, r *http.Request) {
	bank, err := s.db.GetBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	q := r.URL.Query()
	scrollTop := parseFloatDefault(q.Get("scrollTop"), 0)
	height := parseFloatDefault(q.Get("height"), virtuallist.DefaultContainerHeight)
	overscan := parseIntDefault(q.Get("overscan"), virtuallist.DefaultOverscan)

	rows := make([]questionRow, len(bank.Questions))
	for i, question := range bank.Questions {
		rows[i] = questionRow{question}
	}
	list := virtuallist.New(rows,
		virtuallist.WithContainerHeight[questionRow](height),
		virtuallist.WithOverscan[questionRow](overscan),
		virtuallist.WithHeightFunc[questionRow](func(row questionRow, i int) float64 {
			return quizsystem.QuestionRowHeight(row.Question, i)
		}),
	)
	defer list.Close()
	list.HandleScroll(scrollTop)

	writeJSON(w, http.StatusOK, windowResponse{
		Total:       list.Len(),
		TotalHeight: list.TotalHeight(),
		OffsetY:     list.OffsetY(),
		Range:       list.VisibleRange(),
		Items:       list.VisibleItems(),
	})
}

type startGenerationRequest struct {
	Files  []quizsystem.UploadedFile `json:"files"`
	Config quizsystem.QuestionConfig `json:"config"`
	AI     quizsystem.AIConfig       `json:"ai"`
}

func (s *Server) handleStartGeneration(w http.ResponseWriter, r *http.Request) {
	var req startGenerationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one document is required")
		return
	}

	id, err := s.generation.StartGeneration(req.Files, req.Config, s.aiConfig.Merge(req.AI))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"generation_id": id})
}

func (s *Server) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st := s.generation.Status(id)
	if st.GenerationID != id {
		writeError(w, http.StatusNotFound, "unknown generation")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCancelGeneration(w http.ResponseWriter, r *http.Request) {
	if !s.generation.CancelGeneration(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "no running generation with that ID")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st := s.generation.Status(id)
	switch {
	case st.GenerationID != id:
		writeError(w, http.StatusNotFound, "unknown generation")
		return
	case st.IsGenerating:
		writeError(w, http.StatusConflict, "generation still running")
		return
	case st.Error != "":
		writeError(w, http.StatusConflict, st.Error)
		return
	}

	var req createBankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = st.Config.BankName
	}
	req.Questions = st.Questions
	s.saveBank(w, r, req)
}

type startQuizRequest struct {
	BankID string                `json:"bank_id"`
	Config quizsystem.QuizConfig `json:"config"`
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bank, err := s.db.GetBank(r.Context(), req.BankID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	quiz, err := quizsystem.StartQuiz(bank, req.Config, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, _ := s.store.Get(r, sessionName)
	s.mu.Lock()
	if old, ok := session.Values[sessionQuiz].(string); ok {
		delete(s.quizzes, old)
	}
	s.quizzes[quiz.ID] = quiz
	s.mu.Unlock()

	session.Values[sessionQuiz] = quiz.ID
	if err := session.Save(r, w); err != nil {
		s.log.Error().Err(err).Msg("session save failed")
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// currentQuiz returns the quiz bound to the request's session
func (s *Server) currentQuiz(r *http.Request) (*quizsystem.Quiz, *sessions.Session) {
	session, _ := s.store.Get(r, sessionName)
	id, _ := session.Values[sessionQuiz].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizzes[id], session
}

func (s *Server) handleCurrentQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, _ := s.currentQuiz(r)
	if quiz == nil {
		writeError(w, http.StatusNotFound, "no quiz in progress")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, quiz)
}

type saveAnswerRequest struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

func (s *Server) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req saveAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quiz, _ := s.currentQuiz(r)
	if quiz == nil {
		writeError(w, http.StatusNotFound, "no quiz in progress")
		return
	}

	s.mu.Lock()
	err := quiz.SaveAnswer(req.Index, req.Answer)
	answered := quiz.Answered()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"answered": answered, "total": len(quiz.Questions)})
}

func (s *Server) handleFinishQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, session := s.currentQuiz(r)
	if quiz == nil {
		writeError(w, http.StatusNotFound, "no quiz in progress")
		return
	}

	s.mu.Lock()
	snapshot := *quiz
	snapshot.Answers = make(map[int]quizsystem.UserAnswer, len(quiz.Answers))
	for k, v := range quiz.Answers {
		snapshot.Answers[k] = v
	}
	s.mu.Unlock()

	ev, err := s.evaluator.EvaluateAnswers(r.Context(), snapshot.Questions, snapshot.Answers)
	if err != nil {
		s.log.Error().Err(err).Str("quiz_id", snapshot.ID).Msg("evaluation failed")
		writeError(w, statusFor(err), err.Error())
		return
	}
	result := quizsystem.FinishQuiz(&snapshot, ev)
	if err := s.db.SaveResult(r.Context(), result); err != nil {
		s.log.Error().Err(err).Msg("failed to save result")
		writeError(w, statusFor(err), "failed to save result")
		return
	}

	s.mu.Lock()
	delete(s.quizzes, snapshot.ID)
	s.mu.Unlock()
	delete(session.Values, sessionQuiz)
	if err := session.Save(r, w); err != nil {
		s.log.Warn().Err(err).Msg("session save failed")
	}

	s.log.Info().Str("quiz_id", snapshot.ID).Float64("score", result.Score).Msg("quiz finished")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	results, err := s.db.ListResults(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list results")
		writeError(w, statusFor(err), "failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 {
		return v
	}
	return def
}
