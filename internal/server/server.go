package server

import (
	"fmt"
	"net/http"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/database"
	"todoapp/internal/service"
)

type Server struct {
	todoService service.TodoService
	userService service.UserService
	db          database.Service
}

// NewServer builds the http.Server hosting the API on the configured port.
func NewServer(cfg *config.Config, todoService service.TodoService, userService service.UserService, dbService database.Service) *http.Server {
	appServer := &Server{
		todoService: todoService,
		userService: userService,
		db:          dbService,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
