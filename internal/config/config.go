// Package config builds the application settings from environment
// variables, once, at startup. Components receive the parts they need by
// value; nothing reads the environment after this.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is everything the binaries are configured with.
type Settings struct {
	TelegramToken  string
	TelegramChatID int64
	GoogleAPIKey   string
	ModelName      string

	MCPConfigPath string
	CalendarTool  string
	TasksTool     string
	WeatherTool   string

	DailyNoteFolder    string
	TodoistNotesFolder string
	TodoistAPIToken    string
	TodoistInterval    time.Duration

	SystemInstructions string
	AgendaTime         string
	DiaryTime          string

	RAGFolders []string
	RAGDBPath  string

	JournalPath  string
	AllowedUsers []string
	Location     *time.Location
}

// FromEnv builds the bot daemon's settings. All required variables are
// checked up front so a misconfigured start fails with one complete
// message.
func FromEnv() (*Settings, error) {
	s, err := fromEnvCommon()
	if err != nil {
		return nil, err
	}

	var missing []string
	if s.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); s.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if chatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	} else {
		s.TelegramChatID, err = strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
		}
	}
	missing = append(missing, requireCore(s)...)

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

// FromEnvCLI builds settings for flintctl, which needs no Telegram
// credentials.
func FromEnvCLI() (*Settings, error) {
	s, err := fromEnvCommon()
	if err != nil {
		return nil, err
	}
	if missing := requireCore(s); len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

func requireCore(s *Settings) []string {
	var missing []string
	if s.GoogleAPIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if s.ModelName == "" {
		missing = append(missing, "MODEL_NAME")
	}
	if s.MCPConfigPath == "" {
		missing = append(missing, "MCP_CONFIG_PATH")
	}
	return missing
}

func fromEnvCommon() (*Settings, error) {
	s := &Settings{
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		ModelName:     os.Getenv("MODEL_NAME"),
		MCPConfigPath: os.Getenv("MCP_CONFIG_PATH"),

		CalendarTool: envDefault("MCP_CALENDAR_NAME", "calendar"),
		TasksTool:    envDefault("MCP_TODOIST_NAME", "todoist"),
		WeatherTool:  envDefault("MCP_WEATHER_NAME", "weather"),

		DailyNoteFolder:    os.Getenv("DAILY_NOTE_FOLDER"),
		TodoistNotesFolder: os.Getenv("TODOIST_NOTES_FOLDER"),
		TodoistAPIToken:    os.Getenv("TODOIST_API_TOKEN"),

		SystemInstructions: os.Getenv("SYSTEM_INSTRUCTIONS"),
		AgendaTime:         os.Getenv("SCHEDULED_AGENDA_TIME"),
		DiaryTime:          envDefault("SCHEDULED_DIARY_TIME", "23:59"),

		RAGDBPath:   envDefault("RAG_DB_PATH", "flint-rag.db"),
		JournalPath: envDefault("JOURNAL_PATH", "flint-journal.jsonl"),
	}

	s.TodoistInterval = time.Hour
	if raw := os.Getenv("TODOIST_NOTES_SCHEDULE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("TODOIST_NOTES_SCHEDULE: %w", err)
		}
		s.TodoistInterval = d
	}

	s.Location = time.Local
	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("TZ: %w", err)
		}
		s.Location = loc
	}

	s.AllowedUsers = splitList(os.Getenv("USER_FILTER"))
	s.RAGFolders = splitList(os.Getenv("RAG_FOLDERS"))

	return s, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
