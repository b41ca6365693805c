// Package oapi binds request parameters of the banners HTTP API and routes
// them to a ServerInterface.
package oapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// TokenParams carries the optional "token" header.
type TokenParams struct {
	Token *string `json:"token,omitempty"`
}

// ImageParams defines parameters for the image-producing node endpoints.
type ImageParams struct {
	Width     *int    `form:"width,omitempty"     json:"width,omitempty"`
	Height    *int    `form:"height,omitempty"    json:"height,omitempty"`
	Transform *string `form:"transform,omitempty" json:"transform,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /auth)
	PostAuth(w http.ResponseWriter, r *http.Request)
	// (POST /user)
	PostUser(w http.ResponseWriter, r *http.Request, params TokenParams)
	// (POST /nodes)
	PostNode(w http.ResponseWriter, r *http.Request, params TokenParams)
	// (GET /nodes/{id}/banner)
	GetNodeBanner(w http.ResponseWriter, r *http.Request, id int64)
	// (PUT /nodes/{id}/banner)
	PutNodeBanner(w http.ResponseWriter, r *http.Request, id int64, params TokenParams)
	// (GET /nodes/{id}/banners)
	GetNodeBanners(w http.ResponseWriter, r *http.Request, id int64)
	// (GET /nodes/{id}/banner/image)
	GetNodeBannerImage(w http.ResponseWriter, r *http.Request, id int64, params ImageParams)
	// (GET /nodes/{id}/banner/css)
	GetNodeBannerCSS(w http.ResponseWriter, r *http.Request, id int64, params ImageParams)
	// (GET /nodes/{id}/banner/markup)
	GetNodeBannerMarkup(w http.ResponseWriter, r *http.Request, id int64, params ImageParams)
	// (GET /nodes/{id}/banner/options)
	GetNodeBannerOptions(w http.ResponseWriter, r *http.Request, id int64, params TokenParams)
	// (POST /groups)
	PostGroup(w http.ResponseWriter, r *http.Request, params TokenParams)
	// (POST /banners)
	PostBanner(w http.ResponseWriter, r *http.Request, params TokenParams)
	// (POST /images)
	PostImage(w http.ResponseWriter, r *http.Request, params TokenParams)
}

type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts path, query and header values to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type TooManyValuesForParamError struct {
	ParamName string
	Count     int
}

func (e *TooManyValuesForParamError) Error() string {
	return fmt.Sprintf("Expected one value for %s, got %d", e.ParamName, e.Count)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	handler := http.Handler(h)

	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64

	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})

		return 0, false
	}

	return id, true
}

func (siw *ServerInterfaceWrapper) bindToken(w http.ResponseWriter, r *http.Request) (TokenParams, bool) {
	var params TokenParams

	valueList, found := r.Header[http.CanonicalHeaderKey("token")]
	if !found {
		return params, true
	}

	if n := len(valueList); n != 1 {
		siw.ErrorHandlerFunc(w, r, &TooManyValuesForParamError{ParamName: "token", Count: n})

		return params, false
	}

	var token string

	err := runtime.BindStyledParameterWithOptions("simple", "token", valueList[0], &token,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "token", Err: err})

		return params, false
	}

	params.Token = &token

	return params, true
}

func (siw *ServerInterfaceWrapper) bindImage(w http.ResponseWriter, r *http.Request) (ImageParams, bool) {
	var params ImageParams

	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "width", q, &params.Width); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "width", Err: err})

		return params, false
	}

	if err := runtime.BindQueryParameter("form", true, false, "height", q, &params.Height); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "height", Err: err})

		return params, false
	}

	if err := runtime.BindQueryParameter("form", true, false, "transform", q, &params.Transform); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "transform", Err: err})

		return params, false
	}

	return params, true
}

func (siw *ServerInterfaceWrapper) PostAuth(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.PostAuth)
}

func (siw *ServerInterfaceWrapper) withToken(
	h func(http.ResponseWriter, *http.Request, TokenParams),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := siw.bindToken(w, r)
		if !ok {
			return
		}

		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			h(w, r, params)
		})
	}
}

func (siw *ServerInterfaceWrapper) withID(
	h func(http.ResponseWriter, *http.Request, int64),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.bindID(w, r)
		if !ok {
			return
		}

		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			h(w, r, id)
		})
	}
}

func (siw *ServerInterfaceWrapper) withIDToken(
	h func(http.ResponseWriter, *http.Request, int64, TokenParams),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.bindID(w, r)
		if !ok {
			return
		}

		params, ok := siw.bindToken(w, r)
		if !ok {
			return
		}

		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			h(w, r, id, params)
		})
	}
}

func (siw *ServerInterfaceWrapper) withIDImage(
	h func(http.ResponseWriter, *http.Request, int64, ImageParams),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.bindID(w, r)
		if !ok {
			return
		}

		params, ok := siw.bindImage(w, r)
		if !ok {
			return
		}

		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			h(w, r, id, params)
		})
	}
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{}) //nolint:exhaustruct
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/auth", wrapper.PostAuth)
		r.Post(options.BaseURL+"/user", wrapper.withToken(si.PostUser))
		r.Post(options.BaseURL+"/nodes", wrapper.withToken(si.PostNode))
		r.Get(options.BaseURL+"/nodes/{id}/banner", wrapper.withID(si.GetNodeBanner))
		r.Put(options.BaseURL+"/nodes/{id}/banner", wrapper.withIDToken(si.PutNodeBanner))
		r.Get(options.BaseURL+"/nodes/{id}/banners", wrapper.withID(si.GetNodeBanners))
		r.Get(options.BaseURL+"/nodes/{id}/banner/image", wrapper.withIDImage(si.GetNodeBannerImage))
		r.Get(options.BaseURL+"/nodes/{id}/banner/css", wrapper.withIDImage(si.GetNodeBannerCSS))
		r.Get(options.BaseURL+"/nodes/{id}/banner/markup", wrapper.withIDImage(si.GetNodeBannerMarkup))
		r.Get(options.BaseURL+"/nodes/{id}/banner/options", wrapper.withIDToken(si.GetNodeBannerOptions))
		r.Post(options.BaseURL+"/groups", wrapper.withToken(si.PostGroup))
		r.Post(options.BaseURL+"/banners", wrapper.withToken(si.PostBanner))
		r.Post(options.BaseURL+"/images", wrapper.withToken(si.PostImage))
	})

	return r
}
