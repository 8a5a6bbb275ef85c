package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tanzil/quran-cli/internal/app"
	"github.com/tanzil/quran-cli/internal/config"
	"github.com/tanzil/quran-cli/internal/prefs"
	"github.com/tanzil/quran-cli/internal/quran"
	"github.com/tanzil/quran-cli/internal/storage"
	"github.com/tanzil/quran-cli/internal/tui"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify QURAN_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := quran.NewClient(cfg.APIBaseURL, cfg.TafsirBaseURL, nil)

	prefStore := prefs.NewStore(repo)
	if err := prefStore.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load saved preferences (%v), using defaults\n", err)
	}

	service := app.NewService(client, repo, prefStore)

	program := tea.NewProgram(tui.NewModel(service, prefStore), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
