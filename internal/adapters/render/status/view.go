package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/veyrune/capprobe/internal/application"
	"github.com/veyrune/capprobe/internal/domain"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

type RenderOptions struct {
	Now time.Time
	TTL time.Duration
}

func renderStatus(view application.CharacterStatus, opts RenderOptions, s styles) string {
	caps := view.Capabilities

	version := caps.Version
	if version == "" {
		version = domain.SchemaVersion
	}

	lines := []string{
		s.title.Render(fmt.Sprintf("Character: %s", view.Character)),
		s.header.Render(fmt.Sprintf("capabilities schema %s", version)),
		s.section.Render(renderMounts(caps.Mounts, opts, s)),
		s.section.Render(renderUI(caps.UI, opts, s)),
		s.section.Render(renderSkills(caps.Skills, opts, s)),
		s.section.Render(renderInventory(caps.Inventory, opts, s)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMounts(info domain.MountsInfo, opts RenderOptions, s styles) string {
	stale := !opts.Now.IsZero() && info.Stale(opts.Now, opts.TTL)

	parts := []string{
		categoryLine("mounts", mountsSummary(info), stale, s),
		detailLine("verified", nameList(info.LearnedVerified), s),
		detailLine("unverified", nameList(info.DetectedUnverified), s),
		detailLine("best mount", orNone(info.BestSuggestion), s),
		s.age.Render(probeAge(info.LastProbe, opts.Now)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderUI(info domain.UIInfo, opts RenderOptions, s styles) string {
	stale := !opts.Now.IsZero() && info.Stale(opts.Now, opts.TTL)

	parts := []string{
		categoryLine("ui", uiSummary(info), stale, s),
		s.age.Render(probeAge(info.LastProbe, opts.Now)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderSkills(info domain.SkillsInfo, opts RenderOptions, s styles) string {
	stale := !opts.Now.IsZero() && info.Stale(opts.Now, opts.TTL)

	parts := []string{
		categoryLine("skills", fmt.Sprintf("%d learned", len(info.LearnedSkills)), stale, s),
		s.age.Render(probeAge(info.LastProbe, opts.Now)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderInventory(info domain.InventoryInfo, opts RenderOptions, s styles) string {
	stale := !opts.Now.IsZero() && info.Stale(opts.Now, opts.TTL)

	parts := []string{
		categoryLine("inventory", fmt.Sprintf("%d essentials tracked", len(info.Essentials)), stale, s),
		s.age.Render(probeAge(info.LastProbe, opts.Now)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderRoster(rows []application.CharacterOverview, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Stored characters"),
		s.header.Render(fmt.Sprintf("characters: %d", len(rows))),
	}

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No character snapshots on disk."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, row := range rows {
		lines = append(lines, s.section.Render(renderOverview(row, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderOverview(row application.CharacterOverview, opts RenderOptions, s styles) string {
	summary := fmt.Sprintf("%d verified, %d unverified", row.VerifiedMounts, row.DetectedMounts)
	snapshot := fmt.Sprintf("%s, updated %s", humanize.Bytes(uint64(row.SizeBytes)), sinceLabel(row.UpdatedAt, opts.Now))

	parts := []string{
		categoryLine(string(row.Character), summary, row.Stale, s),
		detailLine("snapshot", snapshot, s),
		detailLine("path", row.Path, s),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func categoryLine(name, summary string, stale bool, s styles) string {
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.category.Render(name+":"),
		" ",
		s.detail.Render(summary),
	)

	if stale {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func detailLine(key, value string, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.detailKey.Render(fmt.Sprintf("%-11s", key+":")),
		" ",
		s.detail.Render(value),
	)
}

func probeAge(lastProbe, now time.Time) string {
	if lastProbe.IsZero() {
		return "never probed"
	}

	return "probed " + sinceLabel(lastProbe, now)
}

func sinceLabel(ts, now time.Time) string {
	if now.IsZero() {
		return "at " + ts.Format(time.RFC3339)
	}

	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}

	return durafmt.Parse(age).LimitFirstN(2).Format(shortUnits) + " ago"
}

func mountsSummary(info domain.MountsInfo) string {
	if info.Empty() {
		return "no mounts known"
	}

	return fmt.Sprintf("%d verified, %d unverified", len(info.LearnedVerified), len(info.DetectedUnverified))
}

func uiSummary(info domain.UIInfo) string {
	return fmt.Sprintf("resolution %s, scale %s, language %s",
		orNA(info.Resolution), scaleLabel(info.UIScale), orNA(info.Language))
}

func nameList(names []string) string {
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "none"
	}

	return v
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "n/a"
	}

	return v
}

func scaleLabel(scale float64) string {
	if scale <= 0 {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", scale)
}
