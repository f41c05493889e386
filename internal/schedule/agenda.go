// Package schedule produces the morning agenda message and runs the
// recurring jobs that drive it.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/logging"
	"github.com/flintbot/flint/internal/mcp"
)

// Placeholders substituted when a source tool fails. Unlike the final
// composition, missing source data is survivable.
const (
	FallbackCalendar = "No calendar data available"
	FallbackWeather  = "No weather data available"
)

// AgendaConfig names the tools and locale for the morning agenda.
type AgendaConfig struct {
	CalendarTool string
	WeatherTool  string
	Location     *time.Location
}

// Agenda composes the morning briefing from weather and calendar digests.
type Agenda struct {
	invoker mcp.Invoker
	gen     llm.Generator
	cfg     AgendaConfig
}

// NewAgenda wires an agenda composer.
func NewAgenda(invoker mcp.Invoker, gen llm.Generator, cfg AgendaConfig) *Agenda {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Agenda{invoker: invoker, gen: gen, cfg: cfg}
}

// Compose gathers the day's weather and calendar and asks the model for the
// final briefing. Source tools degrade to placeholders, but an empty final
// generation is a hard error: there is nothing worth sending.
func (a *Agenda) Compose(ctx context.Context, date time.Time) (string, error) {
	weather := a.gather(ctx, a.cfg.WeatherTool, weatherPrompt(date), FallbackWeather)
	calendar := a.gather(ctx, a.cfg.CalendarTool, calendarPrompt(date, a.cfg.Location), FallbackCalendar)

	prompt := fmt.Sprintf(
		"Write a short good-morning briefing for %s.\n\n"+
			"Weather:\n%s\n\n"+
			"Calendar:\n%s\n\n"+
			"Keep it friendly and under 120 words. Mention the weather first, then the day's "+
			"schedule. Use Telegram-compatible markdown.",
		date.Format("Monday, 2 January"), weather, calendar)

	resp, err := a.gen.Generate(ctx, llm.Request{Contents: llm.UserText(prompt)})
	if err != nil {
		return "", fmt.Errorf("compose agenda: %w", err)
	}
	text := strings.TrimSpace(llm.ResponseText(resp))
	if text == "" {
		return "", fmt.Errorf("compose agenda: %w", llm.ErrEmptyGeneration)
	}
	return text, nil
}

func (a *Agenda) gather(ctx context.Context, tool, prompt, fallback string) string {
	if tool == "" {
		return fallback
	}
	out, err := a.invoker.Invoke(ctx, tool, prompt)
	if err != nil {
		logging.Error("schedule", "%s degraded: %v", tool, err)
		return fallback
	}
	if strings.TrimSpace(out) == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}

func weatherPrompt(date time.Time) string {
	return fmt.Sprintf(
		"What is the weather forecast for today, %s? Give a one or two sentence summary "+
			"with temperature range and any precipitation.",
		date.Format("2006-01-02"))
}

func calendarPrompt(date time.Time, loc *time.Location) string {
	return fmt.Sprintf(
		"List my calendar events for %s as a short markdown bullet list. "+
			"Use 24-hour time format. Times are in the %s timezone.",
		date.Format("2006-01-02"), loc.String())
}
