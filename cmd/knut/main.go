// Command knut opens a project directory, optionally runs a script against
// it, and exits with the script's integer result (§6 CLI surface).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tliron/commonlog"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/history"
	"github.com/kdab-labs/knutgo/internal/project"
	"github.com/kdab-labs/knutgo/internal/scriptmgr"
	"github.com/kdab-labs/knutgo/internal/settings"
	"github.com/kdab-labs/knutgo/internal/telemetry"
)

type flags struct {
	run          string
	test         string
	input        string
	line         int
	column       int
	data         string
	jsonList     bool
	jsonSettings bool
}

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

// runCLI builds and executes the root command, returning the process exit
// code: the script's own return value for -r/-t, 0 otherwise, or 1 on any
// setup error.
func runCLI(args []string) int {
	var f flags
	exitCode := 0

	cmd := &cobra.Command{
		Use:          "knut <project>",
		Short:        "Automation engine for large-scale C/C++ and MFC source transformation",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := execute(cmd.Context(), args[0], f)
			exitCode = code
			return err
		},
	}
	cmd.SetArgs(args)

	cmd.Flags().StringVarP(&f.run, "run", "r", "", "run a script and exit with its integer result")
	cmd.Flags().StringVarP(&f.test, "test", "t", "", "like --run, but does not auto-quit on window close")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "open a file in the project")
	cmd.Flags().IntVarP(&f.line, "line", "l", 0, "initial cursor line, 1-based (requires --input)")
	cmd.Flags().IntVarP(&f.column, "column", "c", 0, "initial cursor column, 1-based (requires --input)")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "JSON blob passed to the script")
	cmd.Flags().BoolVar(&f.jsonList, "json-list", false, "dump available scripts as JSON and exit")
	cmd.Flags().BoolVar(&f.jsonSettings, "json-settings", false, "dump the merged settings as JSON and exit")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func execute(ctx context.Context, root string, f flags) (int, error) {
	logPath, logErr := telemetry.Configure(1)
	logger := telemetry.Logger("cmd")
	if logErr != nil {
		logger.Warningf("log file unavailable, falling back to stderr: %v", logErr)
	} else {
		logger.Infof("logging to %s", logPath)
	}

	mode := settings.ModeCli
	if f.test != "" {
		mode = settings.ModeTest
	}

	s := settings.New(mode)
	if err := s.LoadUser(); err != nil {
		logger.Warningf("load user settings: %v", err)
	}
	if err := s.LoadProject(root); err != nil {
		return 1, fmt.Errorf("knut: load project settings: %w", err)
	}

	if f.jsonSettings {
		data, err := s.DumpJSON()
		if err != nil {
			return 1, fmt.Errorf("knut: dump settings: %w", err)
		}
		fmt.Println(string(pretty.Pretty(data)))
		return 0, nil
	}

	proj := project.New(root, s)

	sm, err := scriptmgr.New(nil)
	if err != nil {
		return 1, fmt.Errorf("knut: start script manager: %w", err)
	}
	defer sm.Close()

	for _, dir := range scriptPaths(s, logger) {
		if err := sm.AddDirectory(dir); err != nil {
			logger.Warningf("script dir %s: %v", dir, err)
		}
	}

	if f.jsonList {
		data, err := json.Marshal(listedScripts(sm.Scripts()))
		if err != nil {
			return 1, fmt.Errorf("knut: marshal script list: %w", err)
		}
		fmt.Println(string(pretty.Pretty(data)))
		return 0, nil
	}

	if f.input != "" {
		if err := openInput(proj, f, logger); err != nil {
			return 1, err
		}
	}

	scriptFile := f.run
	if scriptFile == "" {
		scriptFile = f.test
	}
	if scriptFile == "" {
		return 0, nil
	}

	var payload json.RawMessage
	if f.data != "" {
		payload = json.RawMessage(f.data)
	}

	hist := history.New()
	call := hist.Enter("ScriptManager::runScript", false, history.StringArg("fileName", scriptFile))
	_, result, runErr := sm.RunScript(ctx, scriptFile, payload, false, true)
	call.Return("result", result)
	call.Exit()
	if runErr != nil {
		return 1, fmt.Errorf("knut: run script: %w", runErr)
	}
	return scriptExitCode(result), nil
}

// scriptPaths reads /script_paths from the merged settings, tolerating
// both a []interface{} (freshly unmarshaled JSON) and []string shape.
func scriptPaths(s *settings.Settings, logger commonlog.Logger) []string {
	raw, err := s.Get("/script_paths")
	if err != nil {
		return nil
	}
	if strs, ok := raw.([]string); ok {
		return strs
	}
	list, ok := raw.([]interface{})
	if !ok {
		logger.Warningf("/script_paths is not an array, ignoring")
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// listedScript is the shape --json-list dumps: [{name,description,path}].
type listedScript struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

func listedScripts(scripts []scriptmgr.Script) []listedScript {
	out := make([]listedScript, len(scripts))
	for i, s := range scripts {
		out[i] = listedScript{Name: s.Name, Description: s.Description, Path: s.FileName}
	}
	return out
}

func openInput(proj *project.Project, f flags, logger commonlog.Logger) error {
	doc, err := proj.Open(f.input)
	if err != nil {
		return fmt.Errorf("knut: open %s: %w", f.input, err)
	}
	if f.line == 0 && f.column == 0 {
		return nil
	}
	cursor, ok := doc.(document.Cursor)
	if !ok {
		logger.Warningf("%s has no text buffer, ignoring --line/--column", f.input)
		return nil
	}
	line, column := f.line, f.column
	if line == 0 {
		line = 1
	}
	if column == 0 {
		column = 1
	}
	cursor.TextBuffer().GotoLineColumn(line, column)
	return nil
}

// scriptExitCode extracts the integer a script returned, 0 for anything
// else (§6 "Exit code: script return or 0").
func scriptExitCode(result interface{}) int {
	switch v := result.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
