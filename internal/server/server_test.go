package server_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/inkcore/internal/config"
	"github.com/kubev2v/inkcore/internal/server"
)

var _ = Describe("Server", func() {
	var cfg *config.Configuration

	BeforeEach(func() {
		var err error
		cfg, err = config.NewConfigurationWithDefaults()
		Expect(err).NotTo(HaveOccurred())
		cfg.Server.ServerMode = "prod"
	})

	serve := func(srv *server.Server, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("should mount the handlers under /api/v1", func() {
		srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
			router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		})
		Expect(err).NotTo(HaveOccurred())

		rec := serve(srv, "/api/v1/ping")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("pong"))

		rec = serve(srv, "/ping")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("not found"))
	})

	It("should recover from a panicking handler", func() {
		srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
			router.GET("/boom", func(c *gin.Context) { panic("boom") })
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(serve(srv, "/api/v1/boom").Code).To(Equal(http.StatusInternalServerError))
	})

	It("should reject an unknown mode", func() {
		cfg.Server.ServerMode = "staging"
		_, err := server.NewServer(cfg, func(*gin.RouterGroup) {})
		Expect(err).To(HaveOccurred())
	})
})
