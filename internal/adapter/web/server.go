// Package web serves the customer-facing wizard pages
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/format"
	"github.com/simaogato/billlink-backend/internal/usecase/fetcher"
	"github.com/simaogato/billlink-backend/internal/usecase/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageTitle is the title of every customer page
const PageTitle = "ระบบแจ้งยอดชำระ"

// Server is the customer web server
type Server struct {
	router  *gin.Engine
	primary *fetcher.Loader
	step    *fetcher.Loader
	wizard  *wizard.WizardService
	logger  *zap.Logger
	now     func() time.Time

	secureCookies bool
}

// Option configures a Server
type Option func(*Server)

// WithSecureCookies marks the session cookie Secure
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secureCookies = secure }
}

// WithClock replaces time.Now for due-date countdowns
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new web server.
// primary loads the bill on the first step, step loads it on the later ones.
func NewServer(primary, step *fetcher.Loader, wizardService *wizard.WizardService, logger *zap.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		primary: primary,
		step:    step,
		wizard:  wizardService,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	tmpl, err := template.New("").Funcs(s.funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(static))

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	customer := router.Group("/customer/:id", s.sessionMiddleware())
	{
		customer.GET("", s.handleBill)
		customer.POST("/next", s.handleNext)
		customer.GET("/payment-method", s.handlePaymentMethod)
		customer.POST("/payment-method", s.handleSubmitPaymentMethod)
		customer.GET("/qr-payment", s.handleQRPayment)
	}

	s.router = router
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"baht": format.Baht,
		"thaiDate": func(d *time.Time) string {
			if d == nil {
				return "-"
			}
			return format.Date(*d)
		},
		"daysUntil": func(d *time.Time) int {
			if d == nil {
				return 0
			}
			return format.DaysUntil(*d, s.now())
		},
	}
}

// page builds the template data shared by every page
func page(extra gin.H) gin.H {
	data := gin.H{"Title": PageTitle}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// errorReason names why a bill could not be shown, for logs only
func errorReason(res fetcher.Result) string {
	switch res.State {
	case fetcher.StateInvalid:
		return "invalid_identifier"
	case fetcher.StateNotFound:
		return "not_found"
	case fetcher.StateExhausted:
		return "exhausted"
	case fetcher.StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// renderNotFound renders the page shared by every retrieval failure
func (s *Server) renderNotFound(c *gin.Context, res fetcher.Result) {
	s.logger.Info("bill page unavailable",
		zap.String("bill_id", res.ID),
		zap.String("reason", errorReason(res)),
		zap.Int("attempts", len(res.Attempts)),
		zap.String("path", c.Request.URL.Path),
	)
	c.HTML(http.StatusNotFound, "not_found.html", page(gin.H{
		"ReloadURL": c.Request.URL.RequestURI(),
	}))
}
