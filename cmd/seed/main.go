// Command seed creates a demo account with a few tasks on an empty database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/logger"
	"todo-api/internal/models"
	"todo-api/internal/repositories"
	"todo-api/internal/services"
)

const (
	seedName     = "Usuário Teste"
	seedEmail    = "teste@exemplo.com"
	seedPassword = "123456"
)

var seedTasks = []struct {
	name        string
	description string
	status      models.TaskStatus
}{
	{"Estudar Go", "Revisar goroutines e channels", models.TaskStatusPending},
	{"Configurar banco de dados", "Criar as tabelas de usuários e tarefas", models.TaskStatusCompleted},
	{"Escrever testes", "Cobrir os serviços de tarefas", models.TaskStatusPending},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	if err := seed(context.Background(), cfg, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		return err
	}

	users := repositories.NewUserRepository(pool.DB)
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Info("database already has users, skipping seed", "users", count)
		return nil
	}

	auth := services.NewAuthService(pool.DB, nil, nil, cfg.Auth.BCryptCost)
	user, err := auth.Register(ctx, seedName, seedEmail, seedPassword)
	if err != nil {
		return fmt.Errorf("create seed user: %w", err)
	}

	tasks := services.NewTaskService(pool.DB)
	for _, t := range seedTasks {
		description := t.description
		status := string(t.status)
		if _, err := tasks.Create(ctx, user.ID, services.CreateTaskInput{
			Name:        t.name,
			Description: &description,
			Status:      &status,
		}); err != nil {
			return fmt.Errorf("create seed task %q: %w", t.name, err)
		}
	}

	log.Info("seed data created", "email", seedEmail, "tasks", len(seedTasks))
	return nil
}
