package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"duolog/core"
	"duolog/engine"
)

// Terminal palette, mirrored across event kinds.
var (
	agent1Color    = color.New(color.FgBlue, color.Bold)
	agent2Color    = color.New(color.FgYellow, color.Bold)
	systemColor    = color.New(color.FgHiBlack)
	errorColor     = color.New(color.FgRed, color.Bold)
	timestampColor = color.New(color.FgHiBlack, color.Faint)
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Start an agent-to-agent dialogue",
	Long: `Start a dialogue session between two agents and stream it to the
terminal. The prompt is the question both agents discuss; agent 1 analyzes,
agent 2 evaluates agent 1's position against the original question each
round.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDialogue,
}

func init() {
	runCmd.Flags().String("agent1", "", "Model for agent 1 (display name, see 'duolog models')")
	runCmd.Flags().String("agent2", "", "Model for agent 2 (display name, see 'duolog models')")
	runCmd.Flags().Int("rounds", 0, "Number of dialogue rounds")
	runCmd.Flags().Duration("timeout", 0, "Per-call timeout")
	runCmd.Flags().String("save", "", "Write the transcript to this file as Markdown when done")
	_ = viper.BindPFlag("agent1", runCmd.Flags().Lookup("agent1"))
	_ = viper.BindPFlag("agent2", runCmd.Flags().Lookup("agent2"))

	rootCmd.AddCommand(runCmd)
}

func runDialogue(cmd *cobra.Command, args []string) error {
	d := buildDeps()

	// Snapshot the locally served models before the session starts; the
	// status and discovery results surface as events like everything else.
	d.controller.RefreshLocalModels(cmd.Context(), d.ollama)

	names := d.registry.Names()
	if len(names) == 0 {
		return fmt.Errorf("no models available")
	}

	agent1 := viper.GetString("agent1")
	agent2 := viper.GetString("agent2")
	if agent1 == "" || agent2 == "" {
		return fmt.Errorf("both --agent1 and --agent2 are required (see 'duolog models')")
	}

	rounds := viper.GetInt("rounds")
	if n, _ := cmd.Flags().GetInt("rounds"); n > 0 {
		rounds = n
	}
	timeout := configuredTimeout()
	if t, _ := cmd.Flags().GetDuration("timeout"); t > 0 {
		timeout = t
	}

	sess := core.NewSession(strings.Join(args, " "), rounds, timeout, agent1, agent2)
	if err := d.controller.Start(sess); err != nil {
		return err
	}

	// First interrupt requests cooperative cancellation; the consumer keeps
	// draining until the finished event arrives. A second interrupt kills
	// the process the usual way.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		systemColor.Fprintln(os.Stderr, "stopping after the current turn...")
		d.controller.Cancel(sess)
		signal.Stop(sigCh)
	}()

	var guard core.FinishGuard
	err := core.Consume(context.Background(), d.events, engine.DefaultConfig.PollInterval, func(ev core.Event) {
		renderEvent(ev)
		if ev.Kind == core.EventFinished {
			guard.Fire(func() {
				// One-shot completion chime; guarded so a re-observed
				// finished event can never ring twice.
				fmt.Print("\a")
			})
		}
	})
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := saveTranscript(d.store, sess, path); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		systemColor.Fprintf(os.Stderr, "transcript written to %s\n", path)
	}

	if sess.State() == core.StateFailed {
		return fmt.Errorf("dialogue failed after %d completed rounds", sess.Rounds())
	}
	return nil
}

// saveTranscript renders the recorded rounds as a Markdown document.
func saveTranscript(store core.TranscriptStore, sess *core.Session, path string) error {
	rounds, err := store.Transcript(sess.ID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sess.InitialPrompt)
	fmt.Fprintf(&b, "Agent 1: %s | Agent 2: %s\n\n", sess.Agent1, sess.Agent2)
	for i, r := range rounds {
		fmt.Fprintf(&b, "## Round %d\n\n", i+1)
		fmt.Fprintf(&b, "**Agent 1:** %s\n\n", r.Agent1Output)
		fmt.Fprintf(&b, "**Agent 2:** %s\n\n", r.Agent2Output)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// renderEvent prints one engine event with a timestamp prefix.
func renderEvent(ev core.Event) {
	ts := timestampColor.Sprintf("[%s]", ev.Timestamp.Local().Format("15:04:05"))

	switch ev.Kind {
	case core.EventAgentOutput:
		c := agent1Color
		if ev.Agent == 2 {
			c = agent2Color
		}
		fmt.Printf("%s %s %s\n\n", ts, c.Sprintf("Agent %d:", ev.Agent), ev.Text)
	case core.EventError:
		fmt.Printf("%s %s\n", ts, errorColor.Sprint(ev.Text))
	case core.EventStatusOK, core.EventStatusError, core.EventSystemNote:
		fmt.Printf("%s %s\n", ts, systemColor.Sprint(ev.Text))
	case core.EventModelsDiscovered:
		fmt.Printf("%s %s\n", ts, systemColor.Sprintf("%d models available", len(ev.Models)))
	case core.EventFinished:
		fmt.Printf("%s %s\n", ts, systemColor.Sprint("session finished"))
	}
}
