package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/tui"
)

const defaultTUIInstruction = "group by function task.file.folder"

var (
	tuiInstructions []string
	tuiFilter       string
)

var tuiCmd = &cobra.Command{
	Use:   "tui [instructions-file]",
	Short: "Browse grouped tasks in an interactive terminal UI",
	Long: `Open an interactive terminal UI over the imported tasks.

Instructions come from -e flags or an instructions file, the same as
'groupfn group'. Without either, tasks are grouped by folder.

Navigation:
  ↑/k, ↓/j    Move up/down
  PgUp/PgDn   Page up/down
  Enter       Open group / task
  Esc         Go back, or clear the filter
  n/p         Next/previous group (task list)

Grouping:
  /           Edit the task filter (e.g. "is:open path:Work/ #urgent")
  e           Edit the innermost instruction
  a           Add an instruction
  x           Remove the innermost instruction
  r           Re-run the grouping
  q           Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := defaultTUIInstruction
		if len(args) > 0 || len(tuiInstructions) > 0 {
			var err error
			if text, err = readInstructions(args, tuiInstructions, cmd.InOrStdin()); err != nil {
				return err
			}
		}

		settings := query.SettingsFromConfig(cfg, time.Now(), logger)
		// Validate before taking over the terminal.
		ins, _, err := query.Compile(text, settings)
		if err != nil {
			return err
		}
		lines := make([]string, len(ins))
		for i, in := range ins {
			lines[i] = in.Line
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		model := tui.New(query.NewSQLiteEngine(s), tui.Options{
			Instructions: lines,
			Filter:       tuiFilter,
			Settings:     settings,
			Version:      Version,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringArrayVarP(&tuiInstructions, "instruction", "e", nil, "grouping instruction line (repeatable)")
	tuiCmd.Flags().StringVarP(&tuiFilter, "filter", "f", "", "task filter, e.g. \"is:open path:Work/\"")
}
