// Package stats aggregates usage statistics over the history store.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spideyz0r/corvus/pkg/storage"
)

// Stats contains aggregated statistics about command history
type Stats struct {
	TotalCommands  int64
	FailedCommands int64
	SuccessRate    float64
	AvgPerDay      float64
	TopCommands    []CommandCount
	TopDirectories []DirectoryCount
	ByHour         map[int]int
	FirstCommand   time.Time
	LastCommand    time.Time
}

// CommandCount represents a command and how many times it was executed
type CommandCount struct {
	Command string
	Count   int
}

// DirectoryCount represents a directory and command count
type DirectoryCount struct {
	Directory string
	Count     int
}

// Collect gathers statistics over the entries matching the filter. A zero
// filter covers the whole store. Entries are already deduplicated on
// (command, cwd, exit code), so counts reflect distinct invocations kept,
// not raw keystrokes.
func Collect(db *storage.DB, filter storage.Filter) (*Stats, error) {
	stats := &Stats{
		ByHour: make(map[int]int),
	}

	entries, err := db.Match(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	if len(entries) == 0 {
		return stats, nil
	}

	stats.TotalCommands = int64(len(entries))

	commands := make(map[string]int)
	directories := make(map[string]int)

	first := entries[0].Timestamp
	last := entries[0].Timestamp

	for _, entry := range entries {
		commands[entry.Command]++

		if entry.Cwd != "" {
			directories[entry.Cwd]++
		}

		if entry.ExitCode != 0 {
			stats.FailedCommands++
		}

		stats.ByHour[time.Unix(entry.Timestamp, 0).Hour()]++

		if entry.Timestamp < first {
			first = entry.Timestamp
		}
		if entry.Timestamp > last {
			last = entry.Timestamp
		}
	}

	stats.SuccessRate = float64(stats.TotalCommands-stats.FailedCommands) / float64(stats.TotalCommands) * 100
	stats.FirstCommand = time.Unix(first, 0)
	stats.LastCommand = time.Unix(last, 0)

	days := stats.LastCommand.Sub(stats.FirstCommand).Hours() / 24
	if days > 0 {
		stats.AvgPerDay = float64(stats.TotalCommands) / days
	} else {
		stats.AvgPerDay = float64(stats.TotalCommands)
	}

	stats.TopCommands = rankCommands(commands)
	stats.TopDirectories = rankDirectories(directories)

	return stats, nil
}

func rankCommands(counts map[string]int) []CommandCount {
	ranked := make([]CommandCount, 0, len(counts))
	for cmd, count := range counts {
		ranked = append(ranked, CommandCount{Command: cmd, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Command < ranked[j].Command
	})
	return ranked
}

func rankDirectories(counts map[string]int) []DirectoryCount {
	ranked := make([]DirectoryCount, 0, len(counts))
	for dir, count := range counts {
		ranked = append(ranked, DirectoryCount{Directory: dir, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Directory < ranked[j].Directory
	})
	return ranked
}

// Format formats statistics for display
func (s *Stats) Format(topN int) string {
	if s.TotalCommands == 0 {
		return "No commands in history yet."
	}

	var b strings.Builder

	b.WriteString("corvus - history statistics\n")
	b.WriteString("===========================\n\n")

	fmt.Fprintf(&b, "Commands kept:   %s\n", humanize.Comma(s.TotalCommands))
	fmt.Fprintf(&b, "Failed:          %s\n", humanize.Comma(s.FailedCommands))
	fmt.Fprintf(&b, "Success rate:    %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(&b, "Avg per day:     %.1f\n", s.AvgPerDay)
	fmt.Fprintf(&b, "First command:   %s\n", s.FirstCommand.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Last command:    %s (%s)\n\n", s.LastCommand.Format("2006-01-02 15:04:05"), humanize.Time(s.LastCommand))

	if n := min(topN, len(s.TopCommands)); n > 0 {
		fmt.Fprintf(&b, "Top %d commands:\n", n)
		for i := 0; i < n; i++ {
			c := s.TopCommands[i]
			cmd := c.Command
			if len(cmd) > 60 {
				cmd = cmd[:57] + "..."
			}
			fmt.Fprintf(&b, "%3d. (%4d) %s\n", i+1, c.Count, cmd)
		}
		b.WriteString("\n")
	}

	if n := min(5, len(s.TopDirectories)); n > 0 {
		fmt.Fprintf(&b, "Top %d directories:\n", n)
		for i := 0; i < n; i++ {
			d := s.TopDirectories[i]
			fmt.Fprintf(&b, "%3d. (%4d) %s\n", i+1, d.Count, d.Directory)
		}
		b.WriteString("\n")
	}

	if len(s.ByHour) > 0 {
		b.WriteString("Commands by hour:\n")
		b.WriteString(formatHourHistogram(s.ByHour, s.TotalCommands))
	}

	return b.String()
}

// formatHourHistogram renders a bar per active hour, scaled to 40 columns.
func formatHourHistogram(dist map[int]int, total int64) string {
	maxCount := 0
	for _, count := range dist {
		if count > maxCount {
			maxCount = count
		}
	}

	var b strings.Builder
	for hour := 0; hour < 24; hour++ {
		count := dist[hour]
		if count == 0 {
			continue
		}

		barLength := (count * 40) / maxCount
		percentage := float64(count) / float64(total) * 100
		fmt.Fprintf(&b, "%02d:00 (%4d | %5.1f%%) %s\n", hour, count, percentage, strings.Repeat("█", barLength))
	}
	return b.String()
}
