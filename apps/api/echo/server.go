// Package echoapi exposes the portal services over HTTP with echo.
package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/dashboard"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/pages"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Tokens     *Tokens

		Sessions      *session.Service
		Users         *user.Service
		Profiles      *profile.Service
		Courses       *course.Service
		Attendance    *attendance.Service
		Exporter      attendance.Exporter
		Files         *file.Service
		Assignments   *assignment.Service
		Community     *community.Service
		Connections   *connection.Service
		Messages      *messaging.Service
		Announcements *announcement.Service
		Contacts      *contact.Service
		Dashboard     *dashboard.Service
		Pages         *pages.Catalog
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	if deps.Tokens == nil {
		deps.Tokens = NewTokens(deps.Conf)
	}
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Server.MaxUploadSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	auth := authMiddleware(s.deps.Tokens, s.deps.Sessions)
	dash := v1.Group("/dashboard", auth)
	admin := v1.Group("/admin", auth, adminMiddleware())

	registerPagesAPI(v1, s.deps)
	registerContactAPI(v1, admin, s.deps)
	registerSessionAPI(v1, auth, s.deps)
	registerDashboardAPI(dash, s.deps)
	registerAttendanceAPI(dash, s.deps)
	registerAssignmentAPI(dash, s.deps)
	registerFileAPI(dash, s.deps)
	registerMessengerAPI(dash, s.deps)
	registerCommunityAPI(dash, s.deps)
	registerConnectionAPI(dash, s.deps)
	registerAnnouncementAPI(dash, s.deps)
	registerCourseAPI(dash, admin, s.deps)
	registerUserAPI(admin, s.deps)

	s.app.RouteNotFound("/*", notFound)
}

// bodyLimit leaves room for the multipart envelope around an upload of maxUpload bytes.
func bodyLimit(maxUpload int64) string {
	const envelope = 1 << 20
	return fmt.Sprintf("%dK", (maxUpload+envelope)/1024)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the PMNTS Portal API!")
}

func notFound(echo.Context) error {
	return errHttpNotFound
}
