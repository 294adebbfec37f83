package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/nutriexpert/api/internal/analysis"
	"github.com/nutriexpert/api/internal/auth"
	"github.com/nutriexpert/api/internal/blob"
	"github.com/nutriexpert/api/internal/config"
	"github.com/nutriexpert/api/internal/extract"
	"github.com/nutriexpert/api/internal/inference"
	"github.com/nutriexpert/api/internal/reports"
	"github.com/nutriexpert/api/internal/rules"
	"github.com/nutriexpert/api/internal/storage"
	"github.com/nutriexpert/api/internal/storage/memory"
	"github.com/nutriexpert/api/internal/storage/postgres"
	"github.com/nutriexpert/api/internal/vision"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Используется in-memory storage")
		s.storage = memory.New()
	} else {
		log.Println("Подключение к PostgreSQL...")
		ctx := context.Background()
		pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			log.Printf("Ошибка подключения к PostgreSQL: %v", err)
			log.Println("Fallback на in-memory storage")
			s.storage = memory.New()
		} else {
			log.Println("PostgreSQL подключен успешно")
			s.storage = pgStorage
		}
	}
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(s.config, s.storage)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("GET /v1/auth/me", authHandler.HandleMe)

	// Rules API (GET open to advisors, mutations gated to nutritionists)
	rulesService := rules.NewService(s.storage)
	rulesHandler := rules.NewHandler(rulesService)

	s.mux.HandleFunc("GET /v1/rules", rulesHandler.HandleList)
	s.mux.HandleFunc("GET /v1/rules/{id}", rulesHandler.HandleGet)
	s.mux.HandleFunc("POST /v1/rules", rulesHandler.HandleCreate)
	s.mux.HandleFunc("PUT /v1/rules/{id}", rulesHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/rules/{id}", rulesHandler.HandleDelete)

	// Inference API
	inferenceService := inference.NewService(rulesService)
	inferenceHandler := inference.NewHandler(inferenceService)

	s.mux.HandleFunc("POST /v1/infer", inferenceHandler.HandleInfer)

	// Image analysis API
	visionProvider := vision.NewProvider(s.config)
	analysisService := analysis.NewService(visionProvider, extract.NewParser(extract.DefaultConfig()), s.config.VisionMaxImageMB)
	analysisHandler := analysis.NewHandler(analysisService)

	s.mux.HandleFunc("POST /v1/analyze-image", analysisHandler.HandleAnalyzeImage)

	// Reports API
	reportsBlobStore := s.initBlobStore()
	reportsService := reports.NewService(
		s.storage,
		inferenceService,
		reportsBlobStore,
		s.config.Blob.S3.PresignTTLSeconds,
		s.config.Blob.S3.PublicBaseURL,
		s.config.Blob.S3.PreferPublicURL,
		s.config.ReportsDefaultLimit,
		s.config.ReportsMaxLimit,
	)
	reportsHandler := reports.NewHandlers(reportsService)

	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}", reportsHandler.HandleGet)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// initBlobStore строит blob store для отчётов; nil означает local mode.
func (s *Server) initBlobStore() blob.Store {
	store, mode, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("blob store initialization failed: %v", err)
	}
	log.Printf("Reports blob store: mode=%s", mode)
	return store
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	// Build middleware chain (outermost first): CORS → Rate Limit → Auth → Router
	var handler http.Handler = s.mux
	if s.authMiddleware != nil {
		handler = s.authMiddleware.RequireAuth(handler)
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Inference API: http://localhost%s/v1/infer\n", addr)

	return http.ListenAndServe(addr, handler)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
