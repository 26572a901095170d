package hook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/ppiankov/envguard/internal/model"
)

// Output modes for Options.Output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Evaluator decides a single tool call.
type Evaluator interface {
	Evaluate(model.ToolRequest) model.Decision
}

// Options controls how a decision is reported.
type Options struct {
	// Output is OutputText (exit status + message) or OutputJSON (exit 0 +
	// decision document on stdout).
	Output string
	// Stdout also writes the text-mode block message to stdout.
	Stdout bool
	Getenv func(string) string
	Logger *slog.Logger
}

// Run processes one hook invocation and returns the process exit status.
// It never fails the host call: unreadable input and write errors all
// resolve to the decision already made, or to ExitAllow.
func Run(in io.Reader, stdout, stderr io.Writer, ev Evaluator, opts Options) int {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	req, err := Decode(in)
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			logger.Debug("empty payload, allowing")
		} else {
			logger.Debug("unparsable payload, allowing", "error", err)
		}
		return ExitAllow
	}
	req = ResolveSession(req, opts.Getenv)

	d := ev.Evaluate(req)
	if !d.Blocked() {
		return ExitAllow
	}

	if opts.Output == OutputJSON {
		if err := json.NewEncoder(stdout).Encode(DenyOutput(d.Reason)); err != nil {
			logger.Debug("write decision", "error", err)
		}
		return ExitAllow
	}

	msg := BlockMessage(d.Reason)
	if _, err := io.WriteString(stderr, msg); err != nil {
		logger.Debug("write block message", "error", err)
	}
	if opts.Stdout {
		io.WriteString(stdout, msg)
	}
	return ExitBlock
}
