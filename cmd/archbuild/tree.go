package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/born-ml/archbuild/internal/arch"
)

var (
	containerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	layerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	branchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	totalStyle = lipgloss.NewStyle().
			Bold(true)
)

// renderTree draws a module summary as a tree, one module per line.
func renderTree(s arch.Summary) string {
	var sb strings.Builder
	sb.WriteString(node(s))
	writeChildren(&sb, s.Children, "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, children []arch.Summary, prefix string) {
	for i, child := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		sb.WriteString("\n")
		sb.WriteString(branchStyle.Render(prefix + branch))
		sb.WriteString(node(child))
		writeChildren(sb, child.Children, prefix+next)
	}
}

func node(s arch.Summary) string {
	var sb strings.Builder
	if s.Name != "" {
		sb.WriteString(nameStyle.Render("(" + s.Name + ")"))
		sb.WriteString(" ")
	}
	if s.Children != nil || s.Repr == arch.SequentialType || s.Repr == arch.ResBlockType {
		sb.WriteString(containerStyle.Render(s.Repr))
	} else {
		sb.WriteString(layerStyle.Render(s.Repr))
	}
	if s.Params > 0 {
		sb.WriteString(" ")
		sb.WriteString(paramStyle.Render(fmt.Sprintf("%d params", s.Params)))
	}
	return sb.String()
}
