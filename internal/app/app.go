// Package app wires configuration, storage, mail and HTTP into runnable
// processes.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/renorris/cs496-todo-app/internal/config"
	"github.com/renorris/cs496-todo-app/internal/database"
	"github.com/renorris/cs496-todo-app/internal/handler"
	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/mail"
	"github.com/renorris/cs496-todo-app/internal/middleware"
	"github.com/renorris/cs496-todo-app/internal/router"
	"github.com/renorris/cs496-todo-app/internal/service"
	"github.com/renorris/cs496-todo-app/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP server is built from.
type Deps struct {
	Cfg    config.Config
	DB     *sql.DB
	Mailer service.ConfirmationMailer
	Log    logging.Logger
}

// NewServer builds the echo instance with every route registered.
func NewServer(d Deps) (*echo.Echo, error) {
	sessions := utils.NewSessionCodec(d.Cfg.SessionSecret)
	registrations, err := utils.NewRegistrationCodec(d.Cfg.RegistrationSecret)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	users := service.NewUserService(d.Cfg, d.DB, sessions, registrations, d.Mailer, d.Log)
	lists := service.NewListService(d.DB)
	tasks := service.NewTaskService(d.DB)

	router.RegisterRoutes(e, d.DB)
	router.RegisterUser(e, handler.NewUserHandler(users, d.Cfg.ConfirmRedirectURL, d.Log), sessions)
	router.RegisterLists(e, handler.NewListHandler(lists, d.Log), handler.NewTaskHandler(tasks, d.Log), sessions)
	return e, nil
}

// Run opens and migrates the database, builds the mail sender and serves
// HTTP until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DB.Driver, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sender, closeSender, err := NewMailSender(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}
	defer closeSender()

	confirmations := mail.NewConfirmations(mail.NewRenderer(cfg.Mail.TemplatePath), sender, cfg.PublicBaseURL, log)
	e, err := NewServer(Deps{Cfg: cfg, DB: db, Mailer: confirmations, Log: log})
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr(), "env", cfg.Env, "db", cfg.DB.Driver, "mail", cfg.Mail.Transport)
		errc <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
