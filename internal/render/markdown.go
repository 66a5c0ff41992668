// Package render produces the per-module markdown report consumed by humans.
package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"RiskPulse/internal/domain/models"
)

// MarkdownRenderer writes one report file per module under dir, replacing the
// previous report atomically and keeping a .bak of it.
type MarkdownRenderer struct {
	dir string
}

func NewMarkdownRenderer(dir string) *MarkdownRenderer {
	return &MarkdownRenderer{dir: dir}
}

// WriteModule renders and writes the report for one module's run results.
// Rows sort by tier descending, then by |z_short| descending; the long window
// is diagnostic only and never affects ordering.
func (r *MarkdownRenderer) WriteModule(module string, runAt time.Time, results []models.SeriesResult) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	body := RenderModule(module, runAt, results)
	path := filepath.Join(r.dir, module+".md")

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return "", fmt.Errorf("back up report: %w", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace report: %w", err)
	}
	return path, nil
}

// RenderModule builds the report text without touching the filesystem.
func RenderModule(module string, runAt time.Time, results []models.SeriesResult) string {
	rows := make([]models.SeriesResult, len(results))
	copy(rows, results)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Tier != rows[j].Tier {
			return rows[i].Tier > rows[j].Tier
		}
		return absZ(rows[i].ZShort) > absZ(rows[j].ZShort)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# %s risk signals\n\n", module)
	fmt.Fprintf(&b, "Run: %s\n\n", runAt.UTC().Format(time.RFC3339))

	counts := map[models.Tier]int{}
	for _, row := range rows {
		counts[row.Tier]++
	}
	fmt.Fprintf(&b, "ALERT %d | WATCH %d | INFO %d | NONE %d\n\n",
		counts[models.TierAlert], counts[models.TierWatch], counts[models.TierInfo], counts[models.TierNone])

	b.WriteString("| Series | Date | Tier | Δ | Streak WA | z₆₀ | pct₆₀ | pct₂₅₂ | Δz | Δpct | ret1% | Conf | Reason |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.SeriesID,
			row.DataDate.String(),
			row.Tier.String(),
			deltaCell(row),
			row.StreakWA,
			cell(row.ZShort, 2),
			cell(row.PctShort, 1),
			cell(row.PctLong, 1),
			cell(row.ZDelta, 2),
			cell(row.PDelta, 1),
			cell(row.Ret1Pct, 2),
			string(row.Confidence),
			reasonCell(row),
		)
	}

	near := nearLines(rows)
	if len(near) > 0 {
		b.WriteString("\n## Near misses\n\n")
		for _, line := range near {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

func deltaCell(row models.SeriesResult) string {
	if row.DeltaSignal == models.DeltaSame {
		return "·"
	}
	return row.DeltaSignal
}

func reasonCell(row models.SeriesResult) string {
	reason := row.Reason
	if reason == "" {
		reason = "-"
	}
	return strings.ReplaceAll(reason, "|", "\\|")
}

func nearLines(rows []models.SeriesResult) []string {
	var out []string
	for _, row := range rows {
		if len(row.NearTags) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", row.SeriesID, strings.Join(row.NearTags, ", ")))
	}
	return out
}

func cell(m models.Metric, prec int) string {
	if !m.Valid {
		return "NA"
	}
	return formatNum(m.Value, prec)
}

func formatNum(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NA"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func absZ(m models.Metric) float64 {
	if !m.Valid {
		return math.Inf(-1)
	}
	return math.Abs(m.Value)
}
