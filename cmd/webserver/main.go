package main

import (
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"

	"taskverify"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	_ "github.com/joho/godotenv/autoload"
)

const sessionName = "taskverify-session"

type Server struct {
	store     *taskverify.Store
	verifier  *taskverify.Verifier
	sessions  *sessions.CookieStore
	templates map[string]*template.Template
}

func init() {
	gob.Register(taskverify.Session{})
	gob.Register(taskverify.Question{})
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	taskverify.SetVerbose(*verbose)

	cfg := taskverify.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = taskverify.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if cfg.OpenAI.APIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	store, err := taskverify.OpenStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	secret := cfg.Sessions.Secret
	if secret == "" {
		secret = "taskverify-dev-secret"
	}
	sessionStore := sessions.NewCookieStore([]byte(secret))

	maker := taskverify.NewQuizMaker(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	verifier := taskverify.NewVerifier(store, maker)
	verifier.SetGenerationTimeout(cfg.GenerationTimeout())

	// Load templates with custom functions
	funcMap := template.FuncMap{
		"printf": fmt.Sprintf,
	}

	templates := make(map[string]*template.Template)
	templateFiles := []struct {
		name string
		file string
	}{
		{"tasks", "templates/tasks.html"},
		{"signin", "templates/signin.html"},
		{"question", "templates/question.html"},
		{"result", "templates/result.html"},
		{"error", "templates/error.html"},
	}
	for _, tmpl := range templateFiles {
		templates[tmpl.name] = template.Must(template.New(tmpl.name).Funcs(funcMap).ParseFiles("templates/base.html", tmpl.file))
	}

	server := &Server{
		store:     store,
		verifier:  verifier,
		sessions:  sessionStore,
		templates: templates,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", server.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/tasks", server.handleTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/daily/{id}/complete", server.handleCompleteDaily).Methods(http.MethodPost)
	r.HandleFunc("/tasks/quest/{questID}/{taskID}/complete", server.handleCompleteQuestSubtask).Methods(http.MethodPost)
	r.HandleFunc("/signin", server.handleSignin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/signout", server.handleSignout).Methods(http.MethodPost)
	r.HandleFunc("/verify", server.handleStartVerification).Methods(http.MethodGet)
	r.HandleFunc("/verify/question", server.handleQuestion).Methods(http.MethodGet)
	r.HandleFunc("/verify/answer", server.handleAnswer).Methods(http.MethodPost)
	r.HandleFunc("/verify/result", server.handleResult).Methods(http.MethodGet)

	addr := cfg.Addr()
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	dailies, err := s.store.ListDailies()
	if err != nil {
		log.Printf("Failed to list daily tasks: %v", err)
		http.Error(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	quests, err := s.store.ListQuests()
	if err != nil {
		log.Printf("Failed to list quests: %v", err)
		http.Error(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	userID, _ := session.Values["user_id"].(string)

	points := 0
	if userID != "" {
		points, err = s.store.GetPoints(userID)
		if err != nil {
			log.Printf("Failed to read points for %s: %v", userID, err)
		}
	}

	s.render(w, "tasks", map[string]interface{}{
		"Dailies": dailies,
		"Quests":  quests,
		"UserID":  userID,
		"Points":  points,
	})
}

func (s *Server) handleCompleteDaily(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.CompleteDaily(id, time.Now()); err != nil {
		if errors.Is(err, taskverify.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Failed to complete daily %s: %v", id, err)
		http.Error(w, "Failed to complete task", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleCompleteQuestSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.CompleteQuestSubtask(vars["questID"], vars["taskID"]); err != nil {
		if errors.Is(err, taskverify.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Failed to complete quest sub-task %s: %v", vars["taskID"], err)
		http.Error(w, "Failed to complete task", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, "signin", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		http.Error(w, "User id is required", http.StatusBadRequest)
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Values["user_id"] = userID
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	delete(session.Values, "user_id")
	delete(session.Values, "quiz")
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// handleStartVerification reaches the verification view via
// /verify?taskId=...&category=... and kicks off an attempt.
func (s *Server) handleStartVerification(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")
	category := r.URL.Query().Get("category")

	if taskID == "" {
		http.Error(w, "taskId query parameter is required", http.StatusBadRequest)
		return
	}

	quiz, task, err := s.verifier.StartAttempt(r.Context(), taskID, category)
	if err != nil {
		if errors.Is(err, taskverify.ErrTaskNotFound) {
			w.WriteHeader(http.StatusNotFound)
			s.render(w, "error", map[string]interface{}{
				"Message": fmt.Sprintf("Task %q was not found.", taskID),
			})
			return
		}
		log.Printf("Failed to start verification for %s: %v", taskID, err)
		http.Error(w, "Failed to start verification", http.StatusInternalServerError)
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Values["quiz"] = *quiz
	session.Values["task_title"] = task.Title
	delete(session.Values, "awarded")
	delete(session.Values, "total")
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	http.Redirect(w, r, "/verify/question", http.StatusSeeOther)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	quiz, ok := session.Values["quiz"].(taskverify.Session)
	if !ok {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}
	if quiz.Completed {
		http.Redirect(w, r, "/verify/result", http.StatusSeeOther)
		return
	}

	question := quiz.CurrentQuestion()
	s.render(w, "question", map[string]interface{}{
		"TaskTitle":   session.Values["task_title"],
		"QuestionNum": quiz.Current + 1,
		"Total":       len(quiz.Questions),
		"Question":    question.Text,
		"Options":     question.Options,
		"Selected":    quiz.Selected[quiz.Current],
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	quiz, ok := session.Values["quiz"].(taskverify.Session)
	if !ok {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	answer := r.FormValue("answer")
	if answer == "" {
		http.Error(w, "An answer is required", http.StatusBadRequest)
		return
	}

	if err := quiz.SelectAnswer(quiz.Current, answer); err != nil {
		http.Error(w, "Invalid answer", http.StatusBadRequest)
		return
	}
	if err := quiz.Advance(); err != nil {
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	if quiz.Completed {
		// Settle exactly once, at the completion transition. A missing user
		// session skips the award silently; the score still shows.
		userID, _ := session.Values["user_id"].(string)
		awarded, total, err := s.verifier.SettleAttempt(userID, &quiz)
		if err != nil && !errors.Is(err, taskverify.ErrAuthRequired) {
			log.Printf("Reward settlement failed for attempt %s: %v", quiz.AttemptID, err)
		}
		session.Values["awarded"] = awarded
		session.Values["total"] = total
	}

	session.Values["quiz"] = quiz
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	if quiz.Completed {
		http.Redirect(w, r, "/verify/result", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/verify/question", http.StatusSeeOther)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	quiz, ok := session.Values["quiz"].(taskverify.Session)
	if !ok || !quiz.Completed {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	awarded, _ := session.Values["awarded"].(bool)
	total, _ := session.Values["total"].(int)

	s.render(w, "result", map[string]interface{}{
		"TaskTitle":    session.Values["task_title"],
		"ScorePercent": quiz.ScorePercent,
		"Passed":       quiz.ScorePercent >= taskverify.PassThreshold,
		"Awarded":      awarded,
		"AwardPoints":  taskverify.AwardPoints,
		"Total":        total,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
