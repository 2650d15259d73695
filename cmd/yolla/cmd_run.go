package main

import (
	"fmt"
	"io"
	"strings"

	"yolla/pkg/conductor"
	"yolla/pkg/dispatcher"
	"yolla/pkg/eventlog"
	"yolla/pkg/llm"
	"yolla/pkg/protocol"
	"yolla/pkg/registry"
	"yolla/pkg/roster"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runConfig holds configuration for the run command.
type runConfig struct {
	mock   bool
	model  string
	noExec bool
}

// newRunCmd creates the "yolla run" subcommand.
func newRunCmd() *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run one conductor turn against the model",
		Long: "Streams a model response through the directive pipeline: task\n" +
			"directives are extracted and dispatched, the remaining text is\n" +
			"printed as it settles. With no prompt argument, reads stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := resolvePrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runConductor(cmd, cfg, prompt)
		},
	}

	cmd.Flags().BoolVar(&cfg.mock, "mock", false, "treat the prompt itself as the model response (offline)")
	cmd.Flags().StringVar(&cfg.model, "model", "", "override the configured model")
	cmd.Flags().BoolVar(&cfg.noExec, "no-exec", false, "track tasks without launching agent processes")

	return cmd
}

// resolvePrompt returns the positional prompt, or all of stdin when absent.
func resolvePrompt(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

// runConductor assembles the full conductor stack and drives one turn.
func runConductor(cmd *cobra.Command, cfg runConfig, prompt string) error {
	paths, err := ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}

	fileCfg, err := loadConfig(paths.ConfigPath)
	if err != nil {
		return err
	}

	db, err := openStateDB(paths.StateDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	log := eventlog.New(db)
	sessionID := "run-" + uuid.NewString()[:8]
	sink := eventlog.NewSink(log, sessionID)
	reg := registry.New(sink)

	// Each turn is a fresh process; earlier turns' tasks come back from the
	// task table so lifecycle directives can still address them.
	persisted, err := log.Tasks(cmd.Context())
	if err != nil {
		return fmt.Errorf("restore tasks: %w", err)
	}
	reg.Restore(persisted)

	ros, err := roster.Load(paths.ProfilesDir)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	var disp *dispatcher.Dispatcher
	if !cfg.noExec {
		disp = dispatcher.New(dispatcher.Config{
			MaxConcurrent:  fileCfg.MaxConcurrent,
			Strict:         fileCfg.StrictAgents,
			DefaultCommand: fileCfg.DefaultCommand,
		}, reg, ros, &dispatcher.ExecRunner{})
	}

	var pipe *conductor.Pipeline
	if disp != nil {
		pipe = conductor.New(reg, disp, sink)
	} else {
		pipe = conductor.New(reg, nil, sink)
	}

	client, err := buildClient(cfg, prompt)
	if err != nil {
		return err
	}

	model := cfg.model
	if model == "" {
		model = fileCfg.Model
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	req := llm.Request{System: fileCfg.SystemPrompt, Prompt: prompt, Model: model}
	err = client.Stream(ctx, req, func(chunk string) error {
		_, werr := fmt.Fprint(out, pipe.Feed(ctx, chunk))
		return werr
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, pipe.Flush(ctx))
	fmt.Fprintln(out)

	if disp != nil {
		disp.Wait()
	}

	// Final task table, so one-shot runs end with the lifecycle outcome.
	if tasks := reg.List(); len(tasks) > 0 {
		fmt.Fprintln(out)
		for _, task := range tasks {
			row := protocol.TaskRow{
				TaskID:        task.ID,
				AgentID:       task.AgentID,
				State:         string(task.State),
				Progress:      task.Progress,
				FailureReason: task.FailureReason,
			}
			fmt.Fprintln(out, formatTaskRow(row, false))
		}
	}

	return nil
}

// buildClient picks the model backend. Mock mode replays the prompt as the
// response so the pipeline can be exercised offline.
func buildClient(cfg runConfig, prompt string) (llm.Client, error) {
	if cfg.mock {
		return llm.NewScripted(prompt), nil
	}
	return llm.NewAnthropicClient()
}
