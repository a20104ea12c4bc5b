package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	echoapi "github.com/akia2466/PMNTS-Lovable/apps/api/echo"
	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/dashboard"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/pages"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	appfs "github.com/akia2466/PMNTS-Lovable/fs"
	emailsvc "github.com/akia2466/PMNTS-Lovable/services/email"
	logsvc "github.com/akia2466/PMNTS-Lovable/services/logger"
	"github.com/akia2466/PMNTS-Lovable/services/realtime"
	"github.com/akia2466/PMNTS-Lovable/services/spreadsheet"
	"github.com/akia2466/PMNTS-Lovable/storage/cache"
	"github.com/akia2466/PMNTS-Lovable/storage/database"
	"github.com/akia2466/PMNTS-Lovable/storage/objectstore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	repos, sqlDB, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if sqlDB != nil {
		defer func() {
			if err = sqlDB.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
	}

	var (
		bus       core.PubSub
		blacklist session.TokenBlacklist
	)
	if conf.Redis.Address == "" {
		logger.Info("Redis not configured, using the in-process broker")
		bus = realtime.NewMemoryPubSub(logger)
		blacklist = cache.NewMemoryBlacklist()
	} else {
		var client *redis.Client
		if client, err = cache.NewRedisClient(ctx, conf.Redis); err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer client.Close()
		bus = realtime.NewRedisPubSub(client, logger)
		blacklist = cache.NewRedisBlacklist(client)
	}
	defer bus.Close()

	store, err := setUpObjectStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object storage: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	catalog, err := pages.Load(appfs.FS, appfs.PagesDir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading pages: %v", err), err)
	}

	// set up services
	usrSvc := user.NewService(repos.Users, mailSvc, conf)
	profileSvc := profile.NewService(repos.Profiles)
	dir := directory.New(profileSvc, usrSvc)
	sessionSvc := session.NewService(repos.Tx, usrSvc, profileSvc, bus, blacklist, logger)
	courseSvc := course.NewService(repos.Courses)
	attendanceSvc := attendance.NewService(repos.Attendance, repos.Tx, courseSvc, dir, conf)
	fileSvc := file.NewService(repos.Files, store, logger, conf)
	assignmentSvc := assignment.NewService(repos.Assignments, courseSvc, dir, fileSvc)
	communitySvc := community.NewService(repos.Community, repos.Tx, dir)
	connectionSvc := connection.NewService(repos.Connections, repos.Tx, dir)
	messageSvc := messaging.NewService(repos.Messages, dir, bus, logger)
	announcementSvc := announcement.NewService(repos.Announcements, dir)
	contactSvc := contact.NewService(repos.Contacts, mailSvc, conf)
	dashboardSvc := dashboard.NewService(attendanceSvc, assignmentSvc, messageSvc, announcementSvc, courseSvc, connectionSvc, contactSvc)

	if err = sessionSvc.Start(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("starting sessions: %v", err), err)
	}
	defer func() {
		if err = sessionSvc.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing sessions: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Tokens:        echoapi.NewTokens(conf),
			Sessions:      sessionSvc,
			Users:         usrSvc,
			Profiles:      profileSvc,
			Courses:       courseSvc,
			Attendance:    attendanceSvc,
			Exporter:      spreadsheet.NewExporter(),
			Files:         fileSvc,
			Assignments:   assignmentSvc,
			Community:     communitySvc,
			Connections:   connectionSvc,
			Messages:      messageSvc,
			Announcements: announcementSvc,
			Contacts:      contactSvc,
			Dashboard:     dashboardSvc,
			Pages:         catalog,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpDB returns the in-memory repositories, or those of a migrated PostgreSQL database along with its handle.
func setUpDB(ctx context.Context, conf *core.Config) (database.Repositories, *sql.DB, error) {
	if conf.Database.InMemory() {
		return database.NewMemoryRepositories(), nil, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return database.Repositories{}, nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return database.Repositories{}, nil, err
	}
	if err = database.Migrate(ctx, db, "up"); err != nil {
		_ = db.Close()
		return database.Repositories{}, nil, err
	}
	return database.NewPostgresRepositories(db), db, nil
}

func setUpObjectStore(ctx context.Context, conf *core.Config) (core.ObjectStore, error) {
	if conf.Storage.Bucket == "" {
		return objectstore.NewMemoryStore(), nil
	}
	s3, err := objectstore.NewS3Store(ctx, conf.Storage)
	if err != nil {
		return nil, err
	}
	if err = s3.EnsureBucket(ctx); err != nil {
		return nil, errors.Wrap(err, "ensuring bucket")
	}
	return s3, nil
}
