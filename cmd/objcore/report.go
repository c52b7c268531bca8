package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/objcore/objcore"
)

type classReport struct {
	Name      string
	Kind      string
	Super     string
	Ancestors []string
	Public    []string
	Protected []string
	Private   []string
	Singleton []string
	Container string
	Frozen    bool
}

type loadReport struct {
	Manifests []string
	Classes   []classReport
	Warnings  []string
}

var (
	classNameStyle = lipgloss.NewStyle().Foreground(highlightColor).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	warningStyle   = lipgloss.NewStyle().Foreground(highlightColor)
)

func buildReport(rt *objcore.Runtime, result *objcore.LoadResult, warnings []objcore.Warning) loadReport {
	report := loadReport{Manifests: append([]string(nil), result.Manifests...)}
	for _, c := range result.Defined {
		entry := classReport{
			Name:      c.String(),
			Kind:      "class",
			Ancestors: classList(rt.Ancestors(c)),
			Public:    rt.PublicInstanceMethods(c, false),
			Protected: rt.ProtectedInstanceMethods(c, false),
			Private:   rt.PrivateInstanceMethods(c, false),
			Singleton: rt.SingletonMethods(objcore.ClassValue(c), false),
			Container: c.ContainerKind(),
			Frozen:    c.IsFrozen(),
		}
		if c.IsModule() {
			entry.Kind = "module"
		} else if super := c.Superclass(); super != nil {
			entry.Super = super.String()
		}
		report.Classes = append(report.Classes, entry)
	}
	for _, w := range warnings {
		report.Warnings = append(report.Warnings, w.Message)
	}
	return report
}

func classList(classes []*objcore.Class) []string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	return names
}

func (r loadReport) render(styled bool) string {
	paint := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	var b strings.Builder
	for _, m := range r.Manifests {
		b.WriteString(paint(labelStyle, "loaded ") + m + "\n")
	}
	for _, c := range r.Classes {
		b.WriteString("\n")
		title := c.Kind + " " + c.Name
		if c.Super != "" {
			title += " < " + c.Super
		}
		if c.Container != "" {
			title += " [" + c.Container + "]"
		}
		if c.Frozen {
			title += " (frozen)"
		}
		b.WriteString(paint(classNameStyle, title) + "\n")
		rows := []struct {
			label string
			names []string
		}{
			{"ancestors", c.Ancestors},
			{"public", c.Public},
			{"protected", c.Protected},
			{"private", c.Private},
			{"singleton", c.Singleton},
		}
		for _, row := range rows {
			if len(row.names) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s %s\n", paint(labelStyle, fmt.Sprintf("%-10s", row.label)), strings.Join(row.names, ", "))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range r.Warnings {
			b.WriteString(paint(warningStyle, "warning: "+w) + "\n")
		}
	}
	return b.String()
}
