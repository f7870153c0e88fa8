package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/shellm/internal/appconfig"
	"pkt.systems/shellm/internal/chatstore"
	"pkt.systems/shellm/internal/completion"
	"pkt.systems/shellm/internal/handler"
	"pkt.systems/shellm/internal/render"
	"pkt.systems/shellm/internal/role"
	"pkt.systems/shellm/internal/safety"
	"pkt.systems/shellm/internal/shellexec"
	"pkt.systems/shellm/schema"
)

type askOptions struct {
	configPath    string
	model         string
	temperature   float32
	topP          float32
	markdown      bool
	noStream      bool
	shell         bool
	describeShell bool
	code          bool
	autoApprove   bool
	chatID        string
	replID        string
	showChat      string
	deleteChat    string
	listChats     bool
	roleName      string
	createRole    string
	showRole      string
	listRoles     bool
	editor        bool
	noInteraction bool
}

func (o askOptions) validate() error {
	modes := 0
	for _, enabled := range []bool{o.shell, o.describeShell, o.code} {
		if enabled {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("%w: --shell, --describe-shell and --code are mutually exclusive", schema.ErrConflictingOptions)
	}
	if modes > 0 && o.roleName != "" {
		return fmt.Errorf("%w: --role cannot be combined with a builtin role flag", schema.ErrConflictingOptions)
	}
	if o.chatID != "" && o.replID != "" {
		return fmt.Errorf("%w: --chat and --repl are mutually exclusive", schema.ErrConflictingOptions)
	}
	if o.createRole != "" && (o.showRole != "" || o.listRoles) {
		return fmt.Errorf("%w: --create-role cannot be combined with role queries", schema.ErrConflictingOptions)
	}
	if o.autoApprove && !o.shell && o.replID == "" {
		return fmt.Errorf("%w: --auto-approve requires --shell or --repl", schema.ErrConflictingOptions)
	}
	return nil
}

func newAskCmd() *cobra.Command {
	var o askOptions
	cmd := &cobra.Command{
		Use:           "shellm [prompt]",
		Short:         "Command-line assistant with sessions, roles and guarded shell execution",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(o.configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("md") {
				o.markdown = cfg.Output.PrettifyMarkdown
			}
			if o.model == "" {
				o.model = cfg.Models.Default
			}
			return runAsk(cmd, args, o, cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "", "path to config file")
	flags.StringVar(&o.model, "model", "", "model to use for completions")
	flags.Float32Var(&o.temperature, "temperature", 0.0, "sampling temperature")
	flags.Float32Var(&o.topP, "top-p", 1.0, "nucleus sampling cutoff")
	flags.BoolVar(&o.markdown, "md", true, "prettify markdown output")
	flags.BoolVar(&o.noStream, "no-stream", false, "disable streaming output")
	flags.BoolVarP(&o.shell, "shell", "s", false, "generate and optionally execute shell commands")
	flags.BoolVarP(&o.describeShell, "describe-shell", "d", false, "describe a shell command")
	flags.BoolVarP(&o.code, "code", "c", false, "generate code only")
	flags.BoolVar(&o.autoApprove, "auto-approve", false, "execute generated commands without confirmation when classified safe")
	flags.StringVar(&o.chatID, "chat", "", "persist the turn under a session id")
	flags.StringVar(&o.replID, "repl", "", "start a REPL bound to a session id")
	flags.StringVar(&o.showChat, "show-chat", "", "print the transcript of a session id")
	flags.StringVar(&o.deleteChat, "delete-chat", "", "delete a stored session id")
	flags.BoolVar(&o.listChats, "list-chats", false, "list stored session ids")
	flags.StringVar(&o.roleName, "role", "", "use a stored system role")
	flags.StringVar(&o.createRole, "create-role", "", "create a system role with the given name")
	flags.StringVar(&o.showRole, "show-role", "", "print a stored system role")
	flags.BoolVar(&o.listRoles, "list-roles", false, "list stored system roles")
	flags.BoolVar(&o.editor, "editor", false, "open $EDITOR to compose the prompt")
	flags.BoolVar(&o.noInteraction, "no-interaction", false, "skip the execute/describe/abort prompt after shell completions")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string, o askOptions, cfg appconfig.Config, logger pslog.Logger) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := chatstore.NewStoreWithLogger(cfg.Chat.SessionsDir, cfg.Chat.MaxLength, logger)
	if err != nil {
		return err
	}
	switch {
	case o.listChats:
		ids, err := store.ListIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	case o.showChat != "":
		transcript, err := store.Render(schema.SessionID(o.showChat))
		if err != nil {
			return err
		}
		fmt.Fprint(out, transcript)
		return nil
	case o.deleteChat != "":
		return store.Delete(schema.SessionID(o.deleteChat))
	}

	roles, err := role.NewManager(cfg.Roles.Dir, logger)
	if err != nil {
		return err
	}
	switch {
	case o.createRole != "":
		text, err := gatherPrompt(args, o.editor)
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("%w: role description is required", schema.ErrEmptyPrompt)
		}
		created, err := roles.Create(o.createRole, text)
		if err != nil {
			return err
		}
		logger.Info("role created", "name", created.Name)
		return nil
	case o.showRole != "":
		text, err := roles.Show(o.showRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	case o.listRoles:
		names, err := roles.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	sysRole := role.DefaultRoleFor(o.shell, o.describeShell, o.code)
	if o.roleName != "" {
		sysRole, err = roles.Get(o.roleName)
		if err != nil {
			return err
		}
	}

	prompt, err := gatherPrompt(args, o.editor)
	if err != nil {
		return err
	}

	opts := schema.ChatOptions{
		Model:       schema.ModelID(o.model),
		Temperature: o.temperature,
		TopP:        o.topP,
		NoStream:    o.noStream,
	}
	source := completion.NewClient(completion.ClientConfig{
		APIKey:  cfg.API.Key,
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}, logger)
	printer := render.NewPrinter(out, o.markdown)
	base := handler.Base{Role: sysRole, Source: source, Printer: printer, Log: logger}

	safetyStore := safety.NewStore(cfg.Safety.ConfigPath, logger)
	classifier := safety.NewClassifier(safetyStore.Load())

	if o.replID != "" {
		in, closeIn, err := interactiveReader()
		if err != nil {
			return err
		}
		defer closeIn()
		chat := handler.NewChat(base, store, schema.SessionID(o.replID))
		describe := describeHandler(base)
		question := questionHandler(base)
		executor := shellexec.NewRunner(out, logger)
		repl := handler.NewRepl(chat, describe, question, executor, classifier, o.autoApprove, in, out)
		return repl.Run(ctx, prompt, opts)
	}

	if prompt == "" {
		return schema.ErrEmptyPrompt
	}

	var output string
	switch {
	case handler.IsQuestion(prompt):
		output, err = questionHandler(base).Handle(ctx, prompt, opts)
	case o.chatID != "":
		output, err = handler.NewChat(base, store, schema.SessionID(o.chatID)).Handle(ctx, prompt, opts)
	default:
		output, err = handler.NewDefault(base).Handle(ctx, prompt, opts)
	}
	if err != nil {
		return err
	}

	if sysRole.IsShell() && !handler.IsQuestion(prompt) {
		interact := cfg.Shell.Interaction && !o.noInteraction
		return shellInteraction(ctx, shellInteractionConfig{
			command:        output,
			interact:       interact,
			autoApprove:    o.autoApprove,
			defaultExecute: cfg.Shell.DefaultExecute,
			classifier:     classifier,
			describe:       describeHandler(base),
			options:        opts,
			out:            out,
			logger:         logger,
		})
	}
	return nil
}

func describeHandler(base handler.Base) *handler.DefaultHandler {
	describeBase := base
	describeBase.Role = role.DescribeShell()
	return handler.NewDefault(describeBase)
}

// questionHandler answers general questions regardless of the active role, so
// a ?? turn inside a shell REPL is not forced into command-only output.
func questionHandler(base handler.Base) *handler.QuestionHandler {
	questionBase := base
	questionBase.Role = role.Default()
	return handler.NewQuestion(questionBase)
}
