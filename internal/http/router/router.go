// Package router wires every handler to its route and wraps the result in
// the shared middleware.
package router

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/aanand-mishra/smart-umis-api/internal/http/handlers/account"
	"github.com/aanand-mishra/smart-umis-api/internal/http/handlers/ping"
	"github.com/aanand-mishra/smart-umis-api/internal/http/handlers/student"
	"github.com/aanand-mishra/smart-umis-api/internal/http/middleware"
	"github.com/aanand-mishra/smart-umis-api/internal/password"
	"github.com/aanand-mishra/smart-umis-api/internal/storage"
	"github.com/aanand-mishra/smart-umis-api/internal/telemetry"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Store        storage.Storage
	Hasher       password.Hasher
	Log          *slog.Logger
	HideDBErrors bool

	// TracerProvider receives one server span per request. Nil falls back
	// to the global provider.
	TracerProvider trace.TracerProvider
}

// New returns the root handler.
//
// Route table:
//
//	GET    /api/ping
//	POST   /api/auth/register
//	POST   /api/auth/login
//	POST   /api/students/add
//	GET    /api/students
//	GET    /api/students/{id}
//	PUT    /api/students/{id}
//	DELETE /api/students/{id}
func New(d Deps) http.Handler {
	opts := student.Options{HideDBErrors: d.HideDBErrors}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", ping.New())

	mux.HandleFunc("POST /api/auth/register", account.Register(d.Store, d.Hasher))
	mux.HandleFunc("POST /api/auth/login", account.Login(d.Store, d.Hasher))

	mux.HandleFunc("POST /api/students/add", student.Add(d.Store, opts))
	mux.HandleFunc("GET /api/students", student.GetList(d.Store, opts))
	mux.HandleFunc("GET /api/students/{id}", student.GetByID(d.Store, opts))
	mux.HandleFunc("PUT /api/students/{id}", student.Update(d.Store, opts))
	mux.HandleFunc("DELETE /api/students/{id}", student.Delete(d.Store, opts))

	var h http.Handler = mux
	h = middleware.CORS(h)
	h = middleware.Logger(d.Log)(h)

	var otelOpts []otelhttp.Option
	if d.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(d.TracerProvider))
	}

	return otelhttp.NewHandler(h, telemetry.ServiceName, otelOpts...)
}
