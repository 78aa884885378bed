package main

import (
	"context"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todoapp/internal/apiclient"
	"todoapp/internal/config"
	"todoapp/internal/querycache"
	"todoapp/internal/tui"
)

// bootstrapUser picks the first existing user or creates the demo user.
// This is authentication-free scaffolding, not an identity system.
func bootstrapUser(ctx context.Context, api *apiclient.Client) (uint, error) {
	users, err := api.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) > 0 {
		return users[0].ID, nil
	}

	name := "Demo User"
	user, err := api.CreateUser(ctx, apiclient.CreateUserParams{
		Email: "user@example.com",
		Name:  &name,
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func main() {
	cfg := config.Load()
	api := apiclient.New(cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := bootstrapUser(ctx, api)
	if err != nil {
		log.Printf("Failed to reach API at %s: %v", cfg.APIBaseURL, err)
		os.Exit(1)
	}

	todoCache := querycache.NewTodoCache(api)

	program := tea.NewProgram(tui.New(todoCache, userID))
	if _, err := program.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
