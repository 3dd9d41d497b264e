package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /)
	Root(w http.ResponseWriter, r *http.Request)
	// (GET /healthz)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
	// (GET /{query})
	Search(w http.ResponseWriter, r *http.Request, query string)
	// (GET /{code}/{radiusKm})
	Nearby(w http.ResponseWriter, r *http.Request, code string, radiusKm float64)
}

// ServerOptions configures Handler.
type ServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a path parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// serverInterfaceWrapper binds path parameters before calling the handler.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var query string
	err := runtime.BindStyledParameterWithOptions("simple", "query", chi.URLParam(r, "query"), &query,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}

	siw.handler.Search(w, r, query)
}

func (siw *serverInterfaceWrapper) Nearby(w http.ResponseWriter, r *http.Request) {
	var code string
	err := runtime.BindStyledParameterWithOptions("simple", "code", chi.URLParam(r, "code"), &code,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "code", Err: err})
		return
	}

	var radiusKm float64
	err = runtime.BindStyledParameterWithOptions("simple", "radiusKm", chi.URLParam(r, "radiusKm"), &radiusKm,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "radiusKm", Err: err})
		return
	}

	siw.handler.Nearby(w, r, code, radiusKm)
}

// HandlerWithOptions mounts si on the base router. Static routes are
// registered first; chi prefers them over /{query} regardless of order.
func HandlerWithOptions(si ServerInterface, options ServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	wrapper := serverInterfaceWrapper{
		handler:          si,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Get("/", si.Root)
	r.Get("/healthz", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	r.Get("/{query}", wrapper.Search)
	r.Get("/{code}/{radiusKm}", wrapper.Nearby)
	// Without a radius segment the binder rejects the empty radiusKm.
	r.Get("/{code}/", wrapper.Nearby)

	return r
}
