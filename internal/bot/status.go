package bot

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/flintbot/flint/internal/journal"
)

// statusReport builds the /status reply: process resource usage plus a
// summary of today's journal entries.
func (b *Bot) statusReport() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Uptime: %s", time.Since(b.startedAt).Round(time.Second)))

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := p.CPUPercent(); err == nil {
			lines = append(lines, fmt.Sprintf("CPU: %.1f%%", cpu))
		}
		if info, err := p.MemoryInfo(); err == nil {
			lines = append(lines, fmt.Sprintf("Memory: %.1f MB", float64(info.RSS)/1024/1024))
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		lines = append(lines, fmt.Sprintf("Host memory used: %.1f%%", vm.UsedPercent))
	}

	lines = append(lines, "", summarizeToday(b.journal, b.cfg.Location))
	return strings.Join(lines, "\n")
}

func summarizeToday(jnl *journal.Journal, loc *time.Location) string {
	if jnl == nil {
		return "No journal configured."
	}
	entries, err := jnl.Today(loc)
	if err != nil {
		return fmt.Sprintf("Journal unreadable: %v", err)
	}
	if len(entries) == 0 {
		return "No runs recorded today."
	}

	counts := map[string]int{}
	for _, e := range entries {
		counts[fmt.Sprintf("%s/%s", e.Kind, e.Outcome)]++
	}
	var parts []string
	for key, n := range counts {
		parts = append(parts, fmt.Sprintf("%s x%d", key, n))
	}
	return "Today: " + strings.Join(parts, ", ")
}
