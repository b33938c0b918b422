package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/wesm/groupfn/internal/fileutil"
	"github.com/wesm/groupfn/internal/query"
)

var (
	groupInstructions []string
	groupSelect       taskSelection
	groupToday        string
	groupCollation    string
	groupParallel     int
	groupWidth        int
	groupJSON         bool
)

var groupCmd = &cobra.Command{
	Use:   "group [instructions-file]",
	Short: "Group tasks with group by function instructions",
	Long: `Group tasks by evaluating one or more "group by function" instructions.

Instructions come from -e flags, from a file with one instruction per line,
or from stdin when the file is "-". Blank lines and lines starting with #
are ignored. Each further instruction nests its headings under the previous
one. "group by function reverse ..." sorts that level's headings descending.

Tasks are read from the store unless --tasks names a JSON file. Narrow
them with --filter, e.g. --filter 'source:work #urgent is:open due-before:7d'.

Examples:
  groupfn group -e 'group by function task.tags'
  groupfn group -e 'group by function task.due.format("YYYY-MM")' --open
  groupfn group -e 'group by function task.file.root' -e 'group by function task.status.name'
  groupfn group query.txt --tasks export.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGroup,
}

func runGroup(cmd *cobra.Command, args []string) error {
	text, err := readInstructions(args, groupInstructions, cmd.InOrStdin())
	if err != nil {
		return err
	}

	settings := query.SettingsFromConfig(cfg, time.Now(), logger)
	if groupToday != "" {
		d, err := time.Parse(time.DateOnly, groupToday)
		if err != nil {
			return fmt.Errorf("invalid --today %q: expected YYYY-MM-DD", groupToday)
		}
		settings.Today = d
	}
	if cmd.Flags().Changed("collation") {
		if groupCollation != "" {
			if _, err := language.Parse(groupCollation); err != nil {
				return fmt.Errorf("invalid --collation %q: %w", groupCollation, err)
			}
		}
		settings.Collation = groupCollation
	}
	if groupParallel > 0 {
		settings.Parallelism = groupParallel
	}

	// Fail on bad instructions before reading any tasks.
	if _, _, err := query.Compile(text, settings); err != nil {
		return err
	}

	groupSelect.today = settings.Today
	tasks, err := groupSelect.load(cmd.Context(), storeEngine)
	if err != nil {
		return err
	}

	res, err := query.Group(cmd.Context(), text, tasks, settings)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if groupJSON {
		return writeJSON(out, res)
	}
	style := plainStyle()
	style.width = groupWidth
	if f, ok := out.(*os.File); ok {
		style = newOutputStyle(f, groupWidth)
	}
	if err := writeGroups(out, res, style); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\n%d tasks in %d groups\n", res.TaskCount, len(res.Groups))
	return nil
}

// readInstructions joins -e instructions with the contents of the
// optional instructions file ("-" for stdin).
func readInstructions(args, flags []string, stdin io.Reader) (string, error) {
	var parts []string
	parts = append(parts, flags...)
	if len(args) == 1 {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(io.LimitReader(stdin, fileutil.MaxInputSize))
		} else {
			data, err = fileutil.ReadInput(args[0])
		}
		if err != nil {
			return "", fmt.Errorf("read instructions: %w", err)
		}
		parts = append(parts, strings.ReplaceAll(string(data), "\r\n", "\n"))
	}
	if len(parts) == 0 {
		return "", errors.New("no instructions: pass -e 'group by function ...' or an instructions file")
	}
	return query.JoinInstructions(parts), nil
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.Flags().StringArrayVarP(&groupInstructions, "instruction", "e", nil, "group by function instruction (repeatable)")
	groupCmd.Flags().StringVar(&groupSelect.tasksIn, "tasks", "", "group tasks from this JSON file instead of the store")
	addSelectionFlags(groupCmd, &groupSelect)
	groupCmd.Flags().StringVar(&groupToday, "today", "", "date relative fields use (YYYY-MM-DD, default today)")
	groupCmd.Flags().StringVar(&groupCollation, "collation", "", "BCP 47 language for heading order (overrides config)")
	groupCmd.Flags().IntVar(&groupParallel, "parallel", 0, "tasks evaluated at once (overrides config)")
	groupCmd.Flags().IntVar(&groupWidth, "width", 0, "truncate task lines to this many columns")
	groupCmd.Flags().BoolVar(&groupJSON, "json", false, "output as JSON")
}
