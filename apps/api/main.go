package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/aulatech/aula/apps/api/echo"
	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/event"
	"github.com/aulatech/aula/core/material"
	"github.com/aulatech/aula/core/tutor"
	"github.com/aulatech/aula/core/user"
	emailsvc "github.com/aulatech/aula/services/email"
	genaisvc "github.com/aulatech/aula/services/genai"
	logsvc "github.com/aulatech/aula/services/logger"
	storagesvc "github.com/aulatech/aula/services/storage"
	videosvc "github.com/aulatech/aula/services/video"
	"github.com/aulatech/aula/storage/database"
	sqlxrepos "github.com/aulatech/aula/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	conf := core.Conf
	ctx := context.Background()

	// set up loggers
	logger := newLogger(conf, "API : ")
	dbLogger := newLogger(conf, "DB : ")

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		log.Fatalf("setting up database: %v", err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("closing database", err)
		}
	}()

	// set up repositories
	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	matRepo := sqlxrepos.NewMaterialRepository(db)
	evtRepo := sqlxrepos.NewEventRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var store material.ObjectStore
	if conf.Debug {
		store = storagesvc.NewMemoryStore()
	} else {
		if store, err = storagesvc.NewGCSStore(ctx, conf); err != nil {
			log.Fatalf("setting up object storage: %v", err)
		}
	}

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(crsRepo)
	matSvc := material.NewService(matRepo, store)
	evtSvc := event.NewService(evtRepo, crsRepo)

	gen, err := genaisvc.NewService(ctx, conf, logger)
	if err != nil {
		log.Fatalf("setting up text generation: %v", err)
	}
	videos, err := videosvc.NewService(ctx, conf)
	if err != nil {
		log.Fatalf("setting up video search: %v", err)
	}

	tutorSvc := tutor.NewService(tutor.Options{
		Gen:    gen,
		Videos: videos,
		Dir:    &tutorDirectory{users: usrSvc, courses: crsSvc, materials: matSvc},
		XP:     usrSvc,
		Logger: logger,
		Conf:   conf,
	})

	// start API server
	logger.Info(fmt.Sprintf("%s API initializing : env %q", conf.AppName, conf.Env))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Address:     fmt.Sprintf(":%d", conf.Server.Port),
		Logger:      logger,
		UserSvc:     usrSvc,
		CourseSvc:   crsSvc,
		MaterialSvc: matSvc,
		EventSvc:    evtSvc,
		TutorSvc:    tutorSvc,
	})

	go server.Start()

	select {
	case err = <-server.Errors():
		logger.Error("server error", err)
		os.Exit(1)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)

			if err = server.Close(); err != nil {
				logger.Error("could not force stop server", err)
				os.Exit(1)
			}
		}
	}
}

func newLogger(conf *core.Config, prefix string) core.Logger {
	std := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger := logsvc.NewStdLogger(std)
		logger.Enable(true)
		return logger
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(true)
	return logger
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}
	return db, nil
}
