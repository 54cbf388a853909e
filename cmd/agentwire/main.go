// Command agentwire drives a single conversational-agent run from the
// command line: it wires a session, a model, and a directory of tool
// definitions into pkg/agent and streams the run's events to stdout as
// JSONL, one line per event — the external driver named alongside the
// core packages.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentwire/internal/obslog"
	"agentwire/pkg/agent"
	"agentwire/pkg/config"
	"agentwire/pkg/credential"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
	"agentwire/pkg/provider/chatcompletions"
	"agentwire/pkg/provider/messages"
	"agentwire/pkg/session"
	"agentwire/pkg/toolexec"
	"agentwire/pkg/toolschema"
)

var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version", "version", "-v":
		fmt.Println(Version)
		return
	case "send":
		if err := runSend(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: agentwire send [flags]")
	fmt.Fprintln(os.Stderr, "       agentwire version")
}

// configPathFromArgs pre-scans args for --config before the flag set is
// built, so its default can seed every other flag's default.
func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return config.DefaultPath()
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := config.LoadFrom(configPathFromArgs(args))

	var (
		prompt          string
		systemPrompt    string
		modelID         string
		providerID      string
		toolsDir        string
		sessionPath     string
		logDir          string
		maxTurns        int
		reasoningEffort string
		cacheRetention  string
		logLevel        string
	)

	configPath := fs.String("config", config.DefaultPath(), "Config file path")
	fs.StringVar(&prompt, "prompt", "", "User prompt to send")
	fs.StringVar(&systemPrompt, "system", "", "System prompt")
	fs.StringVar(&modelID, "model", cfg.Model, "Model id (see pkg/model.BuiltinRegistry)")
	fs.StringVar(&providerID, "provider", "", "Provider id override (defaults to the model's registered provider)")
	fs.StringVar(&toolsDir, "tools-dir", "", "Directory of tool definition JSON files")
	fs.StringVar(&sessionPath, "session", "", "Session JSONL path (created if missing; resumed if present)")
	fs.StringVar(&logDir, "log-dir", cfg.LogDir, "Directory for the run's JSONL debug log (optional)")
	fs.IntVar(&maxTurns, "max-turns", cfg.MaxTurns, "Maximum turns in this run (0 = unlimited)")
	fs.StringVar(&reasoningEffort, "reasoning-effort", cfg.ReasoningEffort, "Reasoning effort: low|medium|high|xhigh")
	fs.StringVar(&cacheRetention, "cache-retention", cfg.CacheRetention, "Cache retention: short|long")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return err
	}
	_ = configPath
	if strings.TrimSpace(prompt) == "" {
		return errors.New("--prompt is required")
	}

	registry := model.BuiltinRegistry()
	desc, err := resolveModel(registry, modelID, providerID)
	if err != nil {
		return err
	}

	credPath := cfg.CredentialsPath
	resolver := credential.NewResolver(credPath)
	cred, err := resolver.Resolve(desc.Provider)
	if err != nil {
		return fmt.Errorf("resolve credential for %s: %w", desc.Provider, err)
	}

	var streamFactory agent.StreamFactory
	switch desc.API {
	case model.APIChatCompletions:
		streamFactory = chatcompletions.New(cred).Stream
	case model.APIMessages:
		streamFactory = messages.New(cred).Stream
	default:
		return fmt.Errorf("model %s: unsupported api %q", desc.ID, desc.API)
	}

	tools := agent.NewToolSet()
	if toolsDir != "" {
		if err := toolexec.RegisterDir(tools, toolsDir); err != nil {
			return fmt.Errorf("load tools: %w", err)
		}
	}

	mgr, err := openSession(sessionPath)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	history := mgr.Messages()

	logger := obslog.New("agentwire", obslog.ParseLevel(logLevel))

	a := agent.New(agent.Config{
		Model:         desc,
		StreamFactory: streamFactory,
		ProviderOptions: provider.Options{
			ReasoningEffort: desc.ClampReasoningEffort(reasoningEffort),
			CacheRetention:  cacheRetention,
			MaxRetryDelayMS: int(cfg.RetryDelay.Milliseconds()),
		},
		SystemPrompt: systemPrompt,
		Tools:        tools,
		Validator:    toolschema.NewValidator(),
		MaxTurns:     maxTurns,
		Logger:       logger,
		Metrics:      agent.NewMetrics(nil),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stream, err := a.Send(ctx, history, []message.Message{message.User{Text: prompt, Timestamp: message.TimestampMillis(time.Now())}})
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var replayCfg agent.ReplayConfig
	if logDir != "" {
		replayCfg.Dir = logDir
		replayCfg.Redact = true
	}

	final, runErr := agent.LogRun(ctx, stream, replayCfg, systemPrompt, func(ev agent.Event) {
		writeEventJSON(out, ev)
	})
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	if err := appendNewMessages(mgr, history, final); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func writeEventJSON(w *bufio.Writer, ev agent.Event) {
	data, err := agent.MarshalEvent(ev)
	if err != nil {
		return
	}
	w.Write(data)
	w.WriteByte('\n')
	w.Flush()
}

// resolveModel looks modelID up in registry, trying providerID first (when
// given) and otherwise every registered provider, erroring if more than one
// provider claims the same id and no override was given.
func resolveModel(registry *model.Registry, modelID, providerID string) (model.Descriptor, error) {
	if providerID != "" {
		return registry.Get(providerID, modelID)
	}
	var matches []model.Descriptor
	for _, d := range registry.List("") {
		if d.ID == modelID {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return model.Descriptor{}, fmt.Errorf("model: %q not found; pass --provider to disambiguate or register it", modelID)
	case 1:
		return matches[0], nil
	default:
		return model.Descriptor{}, fmt.Errorf("model: %q is ambiguous across providers; pass --provider", modelID)
	}
}

// openSession opens path if given, else starts an in-memory session (no
// persistence) so a bare `send` still works without a session flag.
func openSession(path string) (*session.Manager, error) {
	if strings.TrimSpace(path) == "" {
		return session.InMemory(), nil
	}
	return session.Open(path)
}

// appendNewMessages writes every message beyond len(before) in after to the
// session log, the run's new user/assistant/tool-result entries.
func appendNewMessages(mgr *session.Manager, before, after []message.Message) error {
	for _, m := range after[len(before):] {
		if _, err := mgr.AppendMessage(m); err != nil {
			return err
		}
	}
	return nil
}
