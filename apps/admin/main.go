package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	emailsvc "github.com/akia2466/PMNTS-Lovable/services/email"
	logsvc "github.com/akia2466/PMNTS-Lovable/services/logger"
	"github.com/akia2466/PMNTS-Lovable/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false)

	if conf.Database.InMemory() {
		logger.Fatal("the admin commands need a postgres database, DATABASE_ENGINE is memory")
	}

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	repos := database.NewPostgresRepositories(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		migrator: func(command string, args ...string) error {
			return database.Migrate(ctx, db, command, args...)
		},
		tx:       repos.Tx,
		validate: validate,
		users:    user.NewService(repos.Users, emailsvc.NewConsoleService(conf, logger), conf),
		profiles: profile.NewService(repos.Profiles),
		courses:  course.NewService(repos.Courses),
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
