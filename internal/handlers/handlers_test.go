package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/kubev2v/inkcore/api/v1"
	"github.com/kubev2v/inkcore/internal/handlers"
	"github.com/kubev2v/inkcore/internal/services"
	"github.com/kubev2v/inkcore/pkg/log"
	"github.com/kubev2v/inkcore/pkg/reaper"
	"github.com/kubev2v/inkcore/pkg/taskpool"
)

var _ = Describe("Handler", func() {
	var (
		pool   *taskpool.Pool
		srv    *services.SessionService
		router *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		pool = taskpool.New(1, taskpool.WithLogger(log.Nop()))

		var err error
		srv, err = services.NewSessionService(pool,
			reaper.WithSlots(61),
			reaper.WithTick(time.Second),
			reaper.WithLogger(log.Nop()),
		)
		Expect(err).NotTo(HaveOccurred())

		router = gin.New()
		handlers.RegisterHandlers(router.Group("/api/v1"), handlers.New(srv))
	})

	AfterEach(func() {
		pool.Close()
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, into any) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), into)).To(Succeed())
	}

	Describe("sessions", func() {
		It("should create a session", func() {
			rec := do(http.MethodPost, "/api/v1/sessions")
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var session v1.Session
			decode(rec, &session)
			Expect(session.Id).NotTo(BeEmpty())
			Expect(rec.Header().Get("Location")).To(Equal("/api/v1/sessions/" + session.Id))
		})

		It("should get, refresh and delete a session", func() {
			var created v1.Session
			decode(do(http.MethodPost, "/api/v1/sessions"), &created)

			rec := do(http.MethodGet, "/api/v1/sessions/"+created.Id)
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = do(http.MethodPut, "/api/v1/sessions/"+created.Id)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var touched v1.Session
			decode(rec, &touched)
			Expect(touched.LastSeen).To(BeTemporally(">=", created.LastSeen))

			rec = do(http.MethodDelete, "/api/v1/sessions/"+created.Id)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodGet, "/api/v1/sessions/"+created.Id)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should list sessions", func() {
			do(http.MethodPost, "/api/v1/sessions")
			do(http.MethodPost, "/api/v1/sessions")

			rec := do(http.MethodGet, "/api/v1/sessions")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list v1.SessionList
			decode(rec, &list)
			Expect(list.Total).To(Equal(2))
			Expect(list.Sessions).To(HaveLen(2))
		})

		DescribeTable("should return 404 for an unknown session",
			func(method string) {
				id := uuid.NewString()
				rec := do(method, "/api/v1/sessions/"+id)
				Expect(rec.Code).To(Equal(http.StatusNotFound))

				var body v1.Error
				decode(rec, &body)
				Expect(body.Error).To(ContainSubstring(id))
			},
			Entry("on get", http.MethodGet),
			Entry("on refresh", http.MethodPut),
			Entry("on delete", http.MethodDelete),
		)

		DescribeTable("should return 400 for an id that is not a UUID",
			func(method string) {
				rec := do(method, "/api/v1/sessions/unknown")
				Expect(rec.Code).To(Equal(http.StatusBadRequest))

				var body v1.Error
				decode(rec, &body)
				Expect(body.Error).To(ContainSubstring("parameter id"))
			},
			Entry("on get", http.MethodGet),
			Entry("on refresh", http.MethodPut),
			Entry("on delete", http.MethodDelete),
		)

		It("should accept an upper case id", func() {
			var created v1.Session
			decode(do(http.MethodPost, "/api/v1/sessions"), &created)

			rec := do(http.MethodGet, "/api/v1/sessions/"+strings.ToUpper(created.Id))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("status", func() {
		It("should report pool and reaper state", func() {
			do(http.MethodPost, "/api/v1/sessions")

			rec := do(http.MethodGet, "/api/v1/status")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var status v1.Status
			decode(rec, &status)
			Expect(status.Pool.Workers).To(Equal(1))
			Expect(status.Reaper.Running).To(BeFalse())
			Expect(status.Reaper.Sessions).To(Equal(1))
			Expect(status.Reaper.Timeout).To(Equal("1m0s"))
		})
	})
})
