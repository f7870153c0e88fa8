package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/shellm/internal/handler"
	"pkt.systems/shellm/internal/safety"
	"pkt.systems/shellm/internal/shellexec"
	"pkt.systems/shellm/schema"
)

type shellInteractionConfig struct {
	command        string
	interact       bool
	autoApprove    bool
	defaultExecute bool
	classifier     *safety.Classifier
	describe       *handler.DefaultHandler
	options        schema.ChatOptions
	in             io.Reader
	executor       shellexec.Executor
	out            io.Writer
	logger         pslog.Logger
}

// shellInteraction follows up a shell-role completion. Commands classified
// safe under --auto-approve run immediately; everything else goes through the
// execute/describe/abort prompt. An empty answer takes the configured default
// action.
func shellInteraction(ctx context.Context, cfg shellInteractionConfig) error {
	command := strings.TrimSpace(cfg.command)
	if command == "" {
		return nil
	}
	executor := cfg.executor
	if executor == nil {
		executor = shellexec.NewRunner(cfg.out, cfg.logger)
	}
	if cfg.autoApprove && cfg.classifier.IsSafeToAutoExecute(command, true) {
		executor.Run(ctx, command)
		return nil
	}
	if !cfg.interact {
		return nil
	}

	in := cfg.in
	if in == nil {
		reader, closeIn, err := interactiveReader()
		if err != nil {
			return err
		}
		defer closeIn()
		in = reader
	}
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(cfg.out, "[E]xecute, [D]escribe, [A]bort: ")
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && answer == "" {
			answer = defaultAnswer(cfg.defaultExecute)
		}
		if answer == "" {
			answer = defaultAnswer(cfg.defaultExecute)
		}
		switch answer {
		case "e", "y":
			executor.Run(ctx, command)
			return nil
		case "d":
			if cfg.describe != nil {
				if _, err := cfg.describe.Handle(ctx, command, cfg.options); err != nil {
					return err
				}
			}
			if err != nil {
				return nil
			}
		default:
			return nil
		}
	}
}

func defaultAnswer(defaultExecute bool) string {
	if defaultExecute {
		return "e"
	}
	return "a"
}
