// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "crf",
		Subcommands: []*Command{
			{Name: "list", Run: func(args []string) error { called = "list"; return nil }},
			{Name: "cat", Run: func(args []string) error { called = "cat"; return nil }},
		},
	}

	if err := root.Execute([]string{"cat"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cat" {
		t.Errorf("dispatched to %q, want %q", called, "cat")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "crf",
		Subcommands: []*Command{
			{
				Name: "seed",
				Subcommands: []*Command{
					{
						Name: "generate",
						Run: func(args []string) error {
							called = "seed generate"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"seed", "generate", "out.age"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "seed generate" {
		t.Errorf("dispatched to %q, want %q", called, "seed generate")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "out.age" {
		t.Errorf("args = %v, want [out.age]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var output string
	var archive string

	command := &Command{
		Name: "extract",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", ".", "output directory")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				archive = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"-o", "/tmp/out", "assets.crf"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if output != "/tmp/out" {
		t.Errorf("output = %q, want %q", output, "/tmp/out")
	}
	if archive != "assets.crf" {
		t.Errorf("archive = %q, want %q", archive, "assets.crf")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "pack",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			flagSet.String("seed-file", "", "seed file")
			flagSet.String("list", "", "JSONC file list")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--seed-fiel", "x"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --seed-file") {
		t.Errorf("error = %q, want suggestion for '--seed-file'", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "pack",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			flagSet.Bool("passphrase", false, "prompt")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "crf",
		Subcommands: []*Command{
			{Name: "list"},
			{Name: "extract"},
			{Name: "verify"},
		},
	}

	err := root.Execute([]string{"extarct"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "extract"`) {
		t.Errorf("error = %q, want suggestion for 'extract'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name:        "crf",
		Subcommands: []*Command{{Name: "list"}, {Name: "verify"}},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			var help bytes.Buffer
			root := &Command{
				Name:        "crf",
				Summary:     "Resource archive tool",
				HelpOutput:  &help,
				Subcommands: []*Command{{Name: "list", Summary: "List entries"}},
			}

			if err := root.Execute([]string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
			if !strings.Contains(help.String(), "List entries") {
				t.Errorf("help output = %q, want subcommand listing", help.String())
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "crf",
		HelpOutput:  io.Discard,
		Subcommands: []*Command{{Name: "list", Summary: "List entries"}},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "crf",
		Description: "Pack, inspect, and mount resource archives.",
		Subcommands: []*Command{
			{Name: "pack", Summary: "Add files to an archive"},
			{Name: "list", Summary: "List archive entries"},
		},
		Examples: []Example{
			{Description: "Pack a directory", Command: "crf pack assets.crf ./assets"},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Pack, inspect, and mount resource archives.",
		"Usage:",
		"crf <command> [flags]",
		"Commands:",
		"Add files to an archive",
		"Examples:",
		"# Pack a directory",
		"crf pack assets.crf ./assets",
		"Run 'crf <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:  "extract",
		Usage: "crf extract ARCHIVE -o DIR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringP("output", "o", ".", "output directory")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{"crf extract ARCHIVE -o DIR", "Flags:", "--output", "-o"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "crf"}
	seed := &Command{Name: "seed", parent: root}
	generate := &Command{Name: "generate", parent: seed}

	if got := generate.fullName(); got != "crf seed generate" {
		t.Errorf("fullName() = %q, want %q", got, "crf seed generate")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"list", "list", 0},
		{"lsit", "list", 2},
		{"extarct", "extract", 2},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestWriteJSONNormalizesNilSlice(t *testing.T) {
	var buffer bytes.Buffer
	var entries []string
	if err := WriteJSON(&buffer, entries); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buffer.String()); got != "[]" {
		t.Errorf("WriteJSON(nil slice) = %q, want []", got)
	}
}

func TestNewLoggerHandlers(t *testing.T) {
	var text, structured bytes.Buffer
	newLogger(&text, 0, true).Info("hello", "key", "value")
	newLogger(&structured, 0, false).Info("hello", "key", "value")

	if !strings.Contains(text.String(), "key=value") {
		t.Errorf("text handler output = %q", text.String())
	}
	if !strings.Contains(structured.String(), `"key":"value"`) {
		t.Errorf("json handler output = %q", structured.String())
	}
}
