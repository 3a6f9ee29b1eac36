package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/chardet"
	"github.com/fwojciec/harvest/htmltomarkdown"
	hslog "github.com/fwojciec/harvest/slog"
)

// sourceRecord is one line of output when several documents are read.
type sourceRecord struct {
	Source string `json:"source"`
	Value  any    `json:"value"`
}

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	if err := c.run(deps); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	return nil
}

func (c *ExtractCmd) run(deps *Dependencies) error {
	def, err := loadDefinition(c.Schema)
	if err != nil {
		return err
	}

	parser, err := newParser(c.Dialect)
	if err != nil {
		return err
	}
	if deps.Logger != nil {
		parser = hslog.NewLoggingParser(parser, deps.Logger)
	}

	paths, err := c.resolveInputs()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)

	if len(paths) == 0 {
		v, err := c.extract(deps, def, parser, deps.Stdin)
		if err != nil {
			return err
		}
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	for _, path := range paths {
		v, err := c.extractFile(deps, def, parser, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(paths) == 1 {
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		if err := enc.Encode(sourceRecord{Source: path, Value: v}); err != nil {
			return err
		}
	}
	return nil
}

// resolveInputs expands glob patterns into file paths in argument order.
// An empty result means stdin.
func (c *ExtractCmd) resolveInputs() ([]string, error) {
	var paths []string
	for _, pattern := range c.Inputs {
		if pattern == "-" {
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, harvest.Errorf(harvest.EINVALID, "invalid input pattern %q: %v", pattern, err)
		}
		if len(matches) == 0 {
			return nil, harvest.Errorf(harvest.ENOTFOUND, "no input matches %q", pattern)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func (c *ExtractCmd) extractFile(deps *Dependencies, def *harvest.Definition, parser harvest.Parser, path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "cannot open input %q: %v", path, err)
	}
	defer f.Close()

	return c.extract(deps, def, parser, f)
}

// extract runs the definition against one document and returns the record,
// or the single requested field.
func (c *ExtractCmd) extract(deps *Dependencies, def *harvest.Definition, parser harvest.Parser, r io.Reader) (any, error) {
	r, err := chardet.NewReader(r, c.Encoding)
	if err != nil {
		return nil, err
	}

	var conv harvest.Converter
	opts := []harvest.SchemaOption{harvest.WithConcurrency(c.Concurrency)}
	if c.KeepComments {
		opts = append(opts, harvest.KeepComments())
	}
	if c.Markdown {
		conv = htmltomarkdown.NewConverter(htmltomarkdown.WithDomain(c.Domain))
		opts = append(opts, harvest.WithConverter(conv))
	}

	schema, err := harvest.Load(parser, def, r, opts...)
	if err != nil {
		return nil, err
	}

	var ex harvest.Extractor = schema
	if deps.Logger != nil {
		ex = hslog.NewLoggingExtractor(ex, def.Name(), deps.Logger)
	}

	if c.Field == "" {
		return ex.ExtractAll()
	}

	v, err := ex.Extract(c.Field)
	if err != nil {
		return nil, err
	}
	return harvest.Settle(v, conv)
}
