package main

import (
	"context"
	"io"
	"log/slog"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Logger is set when verbose output is requested.
	Logger *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Extract a record from a document"`
	Keys    KeysCmd    `cmd:"" help:"List translatable keys of a schema"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Inputs       []string `arg:"" optional:"" help:"Documents or glob patterns to read (stdin when omitted)"`
	Schema       string   `short:"s" required:"" type:"path" help:"Schema definition (YAML)"`
	Dialect      string   `short:"d" enum:"css,xpath,xml" default:"css" help:"Query dialect: css, xpath or xml"`
	Encoding     string   `short:"e" default:"utf-8" help:"Input encoding label, or auto to detect"`
	KeepComments bool     `help:"Keep comment nodes in the document"`
	Concurrency  int      `short:"c" default:"1" help:"Fields extracted in parallel"`
	Markdown     bool     `short:"m" help:"Render markup fields as Markdown"`
	Domain       string   `help:"Domain used to resolve relative links in Markdown"`
	Field        string   `short:"f" help:"Extract a single field"`
	Verbose      bool     `short:"v" help:"Log extraction to stderr"`
}

// KeysCmd is the "keys" subcommand.
type KeysCmd struct {
	Schema string `short:"s" required:"" type:"path" help:"Schema definition (YAML)"`
}
