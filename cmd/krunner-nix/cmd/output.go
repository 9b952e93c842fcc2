package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/app"
	"github.com/pluiedev/krunner-nix/internal/config"
)

var (
	// ANSI colors for terminal output
	colorBold    = color.New(color.Bold)
	colorCyan    = color.New(color.FgCyan)
	colorGreen   = color.New(color.FgGreen)
	colorYellow  = color.New(color.FgYellow)
	colorMagenta = color.New(color.FgMagenta)
	colorGray    = color.New(color.FgHiBlack)
)

// formatMatches formats launcher matches for terminal display.
//
//	⚡ 2 matches │ 85µs
//	  hello  Nix: hello (2.12.1)  exact  0.912  [run shell]
//	    A program that produces a familiar, friendly greeting
func formatMatches(hits []socket.MatchHit, detail string) string {
	var sb strings.Builder
	noun := "matches"
	if len(hits) == 1 {
		noun = "match"
	}
	sb.WriteString(colorBold.Sprintf("⚡ %d %s", len(hits), noun))
	if detail != "" {
		sb.WriteString(" │ " + detail)
	}
	sb.WriteString("\n")

	for _, h := range hits {
		kind := colorGray.Sprint(h.MatchType)
		if h.MatchType == "exact" {
			kind = colorGreen.Sprint(h.MatchType)
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %.3f  %s\n",
			colorCyan.Sprint(h.ID), h.Title, kind, h.Relevance,
			colorMagenta.Sprintf("[%s]", strings.Join(h.Actions, " "))))
		if h.Subtitle != "" {
			sb.WriteString("    " + colorGray.Sprint(h.Subtitle) + "\n")
		}
	}
	return sb.String()
}

// formatActions formats the action table.
func formatActions(actions []socket.ActionInfo) string {
	var sb strings.Builder
	sb.WriteString(colorBold.Sprintf("⚡ %d actions", len(actions)) + "\n")
	for _, a := range actions {
		sb.WriteString(fmt.Sprintf("  %-6s %s  %s\n", colorCyan.Sprint(a.ID), a.Text, colorGray.Sprint(a.Icon)))
	}
	return sb.String()
}

// formatHealth formats a HealthResult for terminal display.
func formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(colorBold.Sprint("⚡ krunner-nix daemon") + "\n")
	sb.WriteString(fmt.Sprintf("  Status:      %s\n", colorGreen.Sprint(h.Status)))
	sb.WriteString(fmt.Sprintf("  Source:      %s\n", h.Source))
	sb.WriteString(fmt.Sprintf("  Programs:    %d\n", h.Programs))
	sb.WriteString(fmt.Sprintf("  Tokens:      %d\n", h.Tokens))
	sb.WriteString(fmt.Sprintf("  Generation:  %d\n", h.Generation))
	if h.LoadedAt > 0 {
		sb.WriteString(fmt.Sprintf("  Loaded:      %s\n", time.Unix(h.LoadedAt, 0).Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("  Uptime:      %s\n", h.Uptime))
	return sb.String()
}

// formatReload formats a ReloadResult for terminal display.
func formatReload(r *socket.ReloadResult) string {
	return colorBold.Sprintf("⚡ generation %d", r.Generation) +
		fmt.Sprintf(" │ %d programs │ %d tokens │ %dms\n", r.Programs, r.Tokens, r.ElapsedMs)
}

// formatConfig formats the resolved configuration and daemon status.
func formatConfig(path string, cfg *config.Config, paths *app.Paths, sockPath string, running bool) string {
	status := colorYellow.Sprint("✗ not running")
	if running {
		status = colorGreen.Sprint("✓ running")
	}
	source := "nix search " + cfg.Flake
	if cfg.CatalogFile != "" {
		source = cfg.CatalogFile
		if cfg.WatchCatalog {
			source += " (watched)"
		}
	}
	cache := "disabled"
	if cfg.CacheTTL > 0 {
		db := cfg.CachePath
		if db == "" {
			db = paths.DB
		}
		cache = fmt.Sprintf("%s (ttl %s)", db, cfg.CacheTTL)
	}

	var sb strings.Builder
	sb.WriteString(colorBold.Sprint("⚡ krunner-nix config") + "\n")
	sb.WriteString(fmt.Sprintf("  Config:    %s\n", path))
	sb.WriteString(fmt.Sprintf("  Flake:     %s\n", cfg.Flake))
	sb.WriteString(fmt.Sprintf("  Catalog:   %s\n", source))
	sb.WriteString(fmt.Sprintf("  Terminal:  %s\n", strings.Join(cfg.Terminal, " ")))
	sb.WriteString(fmt.Sprintf("  Cache:     %s\n", cache))
	sb.WriteString(fmt.Sprintf("  State:     %s\n", paths.Root))
	sb.WriteString(fmt.Sprintf("  Socket:    %s\n", sockPath))
	sb.WriteString(fmt.Sprintf("  Daemon:    %s\n", status))
	return sb.String()
}
