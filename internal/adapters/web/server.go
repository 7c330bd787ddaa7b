package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/threatwatch-io/threatwatch/internal/adapters/web/handlers"
	"github.com/threatwatch-io/threatwatch/internal/adapters/web/websocket"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/core/services/recompute"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr        string
	AuthService ports.AuthService
	Hub         *websocket.Hub

	AuthHandler       *handlers.AuthHandler
	ThreatHandler     *handlers.ThreatHandler
	AssetHandler      *handlers.AssetHandler
	PIRHandler        *handlers.PIRHandler
	AssessmentHandler *handlers.AssessmentHandler

	srv *http.Server
}

// Deps bundles everything the web surface needs.
type Deps struct {
	AuthService  ports.AuthService
	Threats      ports.ThreatRepository
	Assets       ports.AssetRepository
	PIRs         ports.PIRRepository
	Associations ports.AssociationRepository
	Assessments  ports.AssessmentRepository
	Pipeline     *recompute.Service
	Hub          *websocket.Hub
}

// NewServer creates a new web server.
func NewServer(addr string, deps Deps) *Server {
	return &Server{
		Addr:        addr,
		AuthService: deps.AuthService,
		Hub:         deps.Hub,

		AuthHandler:       handlers.NewAuthHandler(deps.AuthService),
		ThreatHandler:     handlers.NewThreatHandler(deps.Threats, deps.Pipeline),
		AssetHandler:      handlers.NewAssetHandler(deps.Assets),
		PIRHandler:        handlers.NewPIRHandler(deps.PIRs),
		AssessmentHandler: handlers.NewAssessmentHandler(deps.Associations, deps.Assessments),
	}
}

// Run starts the server and the WebSocket hub, then blocks until the
// listener fails or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.Hub.Start(ctx)

	handler := SetupRoutes(s)
	instrumentedHandler := otelhttp.NewHandler(handler, "threatwatch-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
