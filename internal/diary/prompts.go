package diary

import (
	"fmt"
	"time"
)

// CalendarPrompt asks the calendar tool for a bullet list of the day's
// events. The capitalized instruction keeps chatty models from wrapping
// the list in commentary that would end up in the note verbatim.
func CalendarPrompt(date time.Time, loc *time.Location) string {
	return fmt.Sprintf(
		"List my calendar events for %s as a markdown bullet list, one event per line, "+
			"in the format '* HH:MM - Event title'. Use 24-hour time format. "+
			"Times are in the %s timezone. "+
			"Focus on events from %s only. "+
			"IT IS VITAL NOT TO INCLUDE ANY INTRODUCTION, EXPLANATION OR COMMENTARY, "+
			"ONLY THE BULLET LIST.",
		date.Format("2006-01-02"), loc.String(), date.Format("2006-01-02"))
}

// TasksPrompt asks the task tool for tasks completed on the given day.
func TasksPrompt(date time.Time) string {
	return fmt.Sprintf(
		"List the tasks I completed on %s as a markdown checklist, one task per line, "+
			"in the format '* [x] Task name ✅ %s'. "+
			"Focus on tasks completed on %s only. "+
			"IT IS VITAL NOT TO INCLUDE ANY INTRODUCTION, EXPLANATION OR COMMENTARY, "+
			"ONLY THE CHECKLIST.",
		date.Format("2006-01-02"), date.Format("2006-01-02"), date.Format("2006-01-02"))
}
