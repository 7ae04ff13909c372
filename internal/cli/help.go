package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(goodColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter returns a kong help printer with lipgloss styling. It
// lists subcommands at the top level and arguments and flags for a
// selected command.
func StyledHelpPrinter(title string) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		node := ctx.Selected()
		if node == nil {
			node = ctx.Model.Node
		}

		sb.WriteString(helpTitleStyle.Render(title))
		sb.WriteString("\n")

		if help := node.Help; help != "" {
			sb.WriteString(helpDescStyle.Render(help))
			sb.WriteString("\n")
		}

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usageLine(ctx, node))
		sb.WriteString("\n")

		if cmds := commands(node); len(cmds) > 0 {
			writeSection(&sb, "Commands:", cmds, helpArgStyle)
		}

		if args := arguments(node); len(args) > 0 {
			writeSection(&sb, "Arguments:", args, helpArgStyle)
		}

		if flags := flagEntries(node); len(flags) > 0 {
			writeSection(&sb, "Flags:", flags, helpFlagStyle)
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())

		return nil
	}
}

type entry struct {
	name       string
	help       string
	defaultVal string
}

func writeSection(sb *strings.Builder, title string, entries []entry, style lipgloss.Style) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.name))
	}

	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(style.Render(fmt.Sprintf("%-*s", width, e.name)))

		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}

		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}

		sb.WriteString("\n")
	}
}

func usageLine(ctx *kong.Context, node *kong.Node) string {
	if node.Type != kong.CommandNode {
		return ctx.Model.Name + " <command> [flags]"
	}

	return ctx.Model.Name + " " + node.Summary()
}

func commands(node *kong.Node) []entry {
	var out []entry

	for _, child := range node.Children {
		if child.Hidden || child.Type != kong.CommandNode {
			continue
		}

		out = append(out, entry{name: child.Name, help: child.Help})
	}

	return out
}

func arguments(node *kong.Node) []entry {
	out := make([]entry, 0, len(node.Positional))
	for _, arg := range node.Positional {
		out = append(out, entry{name: arg.Summary(), help: arg.Help})
	}

	return out
}

func flagEntries(node *kong.Node) []entry {
	out := []entry{{name: "-h, --help", help: "Show context-sensitive help."}}

	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			if f.Name == "help" {
				continue
			}

			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
			}

			if !f.IsBool() {
				ph := f.PlaceHolder
				if ph == "" {
					ph = f.Name
				}

				name += "=" + strings.ToUpper(ph)
			}

			out = append(out, entry{name: name, help: f.Help, defaultVal: f.Default})
		}
	}

	return out
}
