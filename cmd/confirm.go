package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// confirmKeyMap defines key bindings for the y/n prompt.
type confirmKeyMap struct {
	Left  key.Binding
	Right key.Binding
	Enter key.Binding
	Yes   key.Binding
	No    key.Binding
	Quit  key.Binding
}

var confirmKeys = confirmKeyMap{
	Left: key.NewBinding(
		key.WithKeys("left", "h", "up", "k"),
		key.WithHelp("←/h", "yes"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l", "down", "j"),
		key.WithHelp("→/l", "no"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// confirmModel is the Bubble Tea model for a yes/no question.
type confirmModel struct {
	prompt    string
	cursor    int // 0 = Yes, 1 = No
	confirmed bool
	done      bool
}

func newConfirmModel(prompt string) confirmModel {
	return confirmModel{prompt: prompt}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, confirmKeys.Left):
		m.cursor = 0
	case key.Matches(keyMsg, confirmKeys.Right):
		m.cursor = 1
	case key.Matches(keyMsg, confirmKeys.Yes):
		m.cursor = 0
		return m.finish()
	case key.Matches(keyMsg, confirmKeys.No):
		m.cursor = 1
		return m.finish()
	case key.Matches(keyMsg, confirmKeys.Enter):
		return m.finish()
	case key.Matches(keyMsg, confirmKeys.Quit):
		m.cursor = 1
		return m.finish()
	}
	return m, nil
}

func (m confirmModel) finish() (tea.Model, tea.Cmd) {
	m.confirmed = m.cursor == 0
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", askStyle.Render(askPrefix), m.prompt)

	if m.done {
		answer := "no"
		if m.confirmed {
			answer = "yes"
		}
		fmt.Fprintf(&b, "==> %s\n", answer)
		return b.String()
	}

	yes, no := "  Yes  ", "  No  "
	if m.cursor == 0 {
		yes = selectedStyle.Render("> Yes  ")
	} else {
		no = selectedStyle.Render("> No  ")
	}
	b.WriteString("==> " + yes + no + "\n")
	b.WriteString(faintStyle.Render("y/n to answer, ←/→ and enter to select, q to decline"))
	b.WriteString("\n")
	return b.String()
}

// confirmer asks yes/no questions, with a Bubble Tea prompt on a terminal
// and a plain line read otherwise.
type confirmer struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	reader      *bufio.Reader
}

func newConfirmer(in io.Reader, out io.Writer) *confirmer {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &confirmer{in: in, out: out, interactive: interactive, reader: bufio.NewReader(in)}
}

func (c *confirmer) Confirm(prompt string) (bool, error) {
	if c.interactive {
		return c.confirmTUI(prompt)
	}
	return c.confirmLine(prompt)
}

func (c *confirmer) confirmTUI(prompt string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(prompt), tea.WithInput(c.in), tea.WithOutput(c.out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running prompt: %w", err)
	}
	if m, ok := final.(confirmModel); ok {
		return m.confirmed, nil
	}
	return false, fmt.Errorf("unexpected model type")
}

// confirmLine reads answers until one is y or n. End of input declines.
func (c *confirmer) confirmLine(prompt string) (bool, error) {
	for {
		fmt.Fprintf(c.out, "%s %s (y/n)\n==> ", askStyle.Render(askPrefix), prompt)
		line, err := c.reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return false, nil
			}
			return false, err
		}
	}
}
