package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/relay"
	"github.com/vstratful/searchthatterm/internal/selection"
	"github.com/vstratful/searchthatterm/internal/tui"
	"golang.org/x/term"
)

const explainID conversation.ID = "cli-1"

var (
	explainContext string
	explainHeading string
	explainTitle   string
	explainDomain  string
	explainModel   string
	explainJSON    bool
	explainRequest bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [TEXT]",
	Short: "Explain a term without opening the reader",
	Long: `Send one explanation request and print the answer.

The surrounding text, heading and page details are optional and give the
model the same context the reader collects from a selection.

Examples:
  searchthatterm explain "mitochondria"
  searchthatterm explain "ATP" --context "Cells store energy as ATP." --heading "Metabolism"
  searchthatterm explain "quorum" --json                # stream events as JSON lines
  echo '{"action":"getExplanation","conversationId":"c1","text":"quorum"}' | searchthatterm explain --request --json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if explainRequest {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVar(&explainContext, "context", "", "Paragraph the term appears in")
	explainCmd.Flags().StringVar(&explainHeading, "heading", "", "Section heading above the term")
	explainCmd.Flags().StringVar(&explainTitle, "title", "", "Page title")
	explainCmd.Flags().StringVar(&explainDomain, "domain", "", "Page domain")
	explainCmd.Flags().StringVarP(&explainModel, "model", "m", "", "Model to use for this request (default from settings)")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "Print relay events as JSON lines instead of the rendered answer")
	explainCmd.Flags().BoolVar(&explainRequest, "request", false, "Read a getExplanation or chat request envelope from stdin instead of TEXT")
}

func runExplain(cmd *cobra.Command, args []string) error {
	var req conversation.Request
	if explainRequest {
		var err error
		if req, err = readRequest(cmd.InOrStdin()); err != nil {
			return err
		}
	} else {
		req = conversation.ExplanationRequest(explainID, conversation.Context{
			SelectedText: strings.TrimSpace(args[0]),
			Paragraph:    explainContext,
			Heading:      explainHeading,
			PageTitle:    explainTitle,
			PageDomain:   explainDomain,
		})
	}
	if !selection.Qualifies(req.Text) {
		return errors.New("text must be 2 to 999 characters long")
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closer := startLogging(cfg)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := relay.New(explainSettings, relay.WithLogger(logger))
	defer r.Close()

	if err := r.Handle(req); err != nil {
		return err
	}
	return printExplanation(ctx, r, req.ConversationID, cmd)
}

// readRequest decodes one request envelope. A missing conversationId gets
// the default one.
func readRequest(in io.Reader) (conversation.Request, error) {
	var req conversation.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.ConversationID == "" {
		req.ConversationID = explainID
	}
	return req, nil
}

// explainSettings applies the --model override to the stored settings.
func explainSettings() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if explainModel != "" {
		cfg.Model = explainModel
	}
	return cfg, nil
}

func printExplanation(ctx context.Context, r *relay.Relay, id conversation.ID, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			r.Cancel(id)
			return ctx.Err()
		case ev, ok := <-r.Events():
			if !ok {
				return errors.New("relay stopped before the answer finished")
			}
			if ev.ID != id {
				continue
			}
			if explainJSON {
				if err := enc.Encode(ev.Response()); err != nil {
					return fmt.Errorf("failed to write event: %w", err)
				}
			}
			switch ev.Type {
			case conversation.EventDone:
				if !explainJSON {
					fmt.Fprintln(out, renderAnswer(ev.Content))
				}
				return nil
			case conversation.EventError:
				if explainJSON {
					return nil
				}
				return errors.New(ev.Message)
			}
		}
	}
}

// renderAnswer formats markdown for the terminal, or returns it unchanged
// when stdout is not a terminal.
func renderAnswer(content string) string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return content
	}
	width := config.DefaultTerminalWidth
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	md, err := tui.NewMarkdownRenderer(width)
	if err != nil {
		return content
	}
	return md.Render(content)
}
