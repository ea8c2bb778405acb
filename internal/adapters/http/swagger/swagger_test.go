package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestDocsRoutes(t *testing.T) {
	Convey("Given the docs routes", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("The OpenAPI description lists the converter endpoints", func() {
			w := serve(mux, http.MethodGet, "/openapi.yaml")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/yaml")
			for _, path := range []string{"/datasets:", "/convert:", "/regrade:", "/results:", "/export/{stage}:", "/template:"} {
				So(w.Body.String(), ShouldContainSubstring, path)
			}
		})

		Convey("The docs page loads ReDoc against the description", func() {
			w := serve(mux, http.MethodGet, "/api-docs")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, RedocURL)
			So(w.Body.String(), ShouldContainSubstring, "Redoc.init('/openapi.yaml'")
		})

		Convey("HEAD returns headers only", func() {
			w := serve(mux, http.MethodHead, "/openapi.yaml")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Cache-Control"), ShouldNotBeEmpty)
			So(w.Body.Len(), ShouldEqual, 0)
		})

		Convey("Other methods are refused", func() {
			w := serve(mux, http.MethodDelete, "/api-docs")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
		})
	})

	Convey("Given no mux", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}
