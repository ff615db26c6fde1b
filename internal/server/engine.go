package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/evently-app/evently/internal/middleware"
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/config"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

//go:embed templates/*.html
var templates embed.FS

const serviceName = "evently"

// GetEngine returns an engine with the middleware every route shares and the health endpoint.
// Given middleware runs after the session is loaded. Routes are added by each package.
func GetEngine(logger *slog.Logger, sessionConfig config.Session, mw ...gin.HandlerFunc) (*gin.Engine, error) {
	r := gin.New()

	t, err := Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(t)

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler())
	r.Use(session.Middleware(sessionConfig))
	r.Use(mw...)

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"Title": "Not found", "Message": ""})
	})

	r.GET("/health", Health)

	return r, nil
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templates, "templates/*.html")
}

// Funcs are the functions available to page templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format(model.ShareDateFormat)
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04 MST")
		},
		"inputDate": func(t time.Time) string {
			return t.UTC().Format("2006-01-02T15:04")
		},
		"owns": func(user *model.User, event *model.Event) bool {
			return user.Owns(event)
		},
	}
}

// CORS allows the given origins to fetch resources. A single "*" allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodHead}
	return cors.New(corsConfig)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}
