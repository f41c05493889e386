package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/flintbot/flint/internal/bot"
	"github.com/flintbot/flint/internal/config"
	"github.com/flintbot/flint/internal/diary"
	"github.com/flintbot/flint/internal/extensions"
	"github.com/flintbot/flint/internal/journal"
	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/logging"
	"github.com/flintbot/flint/internal/mcp"
	"github.com/flintbot/flint/internal/rag"
	"github.com/flintbot/flint/internal/schedule"
	"github.com/flintbot/flint/internal/todoist"
)

func main() {
	log.Printf("[flint] Starting")

	if err := godotenv.Load(); err != nil {
		logging.Debug("flint", "No .env file loaded: %v", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[flint] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gemini, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.ModelName)
	if err != nil {
		log.Fatalf("[flint] Gemini: %v", err)
	}
	defer gemini.Close()

	registry := extensions.NewRegistry(cfg.MCPConfigPath)
	if err := registry.Reload(); err != nil {
		log.Fatalf("[flint] Tool config: %v", err)
	}
	logging.Info("flint", "Loaded %d tool servers", registry.Len())
	runner := mcp.NewRunner(registry, gemini)

	jnl, err := journal.New(cfg.JournalPath)
	if err != nil {
		log.Fatalf("[flint] Journal: %v", err)
	}

	diaryOrch := diary.New(runner, diary.Config{
		NotesFolder:   cfg.DailyNoteFolder,
		TodoistFolder: cfg.TodoistNotesFolder,
		CalendarTool:  cfg.CalendarTool,
		TasksTool:     cfg.TasksTool,
		Location:      cfg.Location,
	})

	var ragEngine *rag.Engine
	if len(cfg.RAGFolders) > 0 {
		store, err := rag.OpenStore(cfg.RAGDBPath)
		if err != nil {
			log.Fatalf("[flint] RAG store: %v", err)
		}
		defer store.Close()
		ragEngine = rag.NewEngine(store, gemini, gemini)
		go func() {
			if _, err := ragEngine.Index(ctx, cfg.RAGFolders); err != nil {
				logging.Error("flint", "RAG index: %v", err)
			}
		}()
	}

	tg, err := bot.New(cfg, gemini, gemini, runner, diaryOrch, ragEngine, jnl)
	if err != nil {
		log.Fatalf("[flint] Telegram: %v", err)
	}

	scheduler := schedule.NewRunner(cfg.Location)
	defer scheduler.Stop()

	if cfg.AgendaTime != "" {
		agenda := schedule.NewAgenda(runner, gemini, schedule.AgendaConfig{
			CalendarTool: cfg.CalendarTool,
			WeatherTool:  cfg.WeatherTool,
			Location:     cfg.Location,
		})
		err := scheduler.DailyAt(cfg.AgendaTime, "morning agenda", func() {
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			text, err := agenda.Compose(runCtx, time.Now().In(cfg.Location))
			outcome := "sent"
			if err == nil {
				err = tg.SendMarkdown(text)
			}
			if err != nil {
				outcome = "failed"
				logging.Error("flint", "agenda: %v", err)
			}
			recordRun(jnl, journal.KindAgenda, outcome, err)
		})
		if err != nil {
			log.Fatalf("[flint] Agenda schedule: %v", err)
		}
	}

	if cfg.DailyNoteFolder != "" {
		err := scheduler.DailyAt(cfg.DiaryTime, "daily diary", func() {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			res, err := diaryOrch.Run(runCtx, diary.Options{})
			if err != nil {
				logging.Error("flint", "diary: %v", err)
			}
			recordRun(jnl, journal.KindDiary, string(res.Outcome), err)
		})
		if err != nil {
			log.Fatalf("[flint] Diary schedule: %v", err)
		}
	}

	if cfg.TodoistAPIToken != "" && cfg.TodoistNotesFolder != "" {
		exporter := todoist.NewExporter(todoist.NewClient(cfg.TodoistAPIToken))
		scheduler.Every(cfg.TodoistInterval, time.Minute, "todoist sync", func() {
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			n, err := exporter.Export(runCtx, todoist.ExportConfig{
				OutputDir:       cfg.TodoistNotesFolder,
				IncludeComments: true,
				Location:        cfg.Location,
			})
			outcome := "synced"
			if err != nil {
				outcome = "failed"
				logging.Error("flint", "todoist sync: %v", err)
			} else {
				logging.Debug("flint", "Synced %d tasks", n)
			}
			recordRun(jnl, journal.KindTodoistSync, outcome, err)
		})
	}

	go tg.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("[flint] Shutting down")
	cancel()
}

func recordRun(jnl *journal.Journal, kind journal.Kind, outcome string, runErr error) {
	entry := journal.Entry{Kind: kind, Outcome: outcome}
	if runErr != nil {
		entry.Detail = runErr.Error()
	}
	if err := jnl.Record(entry); err != nil {
		logging.Error("flint", "journal: %v", err)
	}
}
