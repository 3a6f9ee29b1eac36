package main

import (
	"os"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/etree"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/htmlquery"
	"github.com/fwojciec/harvest/yaml"
)

// loadDefinition reads a YAML definition from path.
func loadDefinition(path string) (*harvest.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "cannot open schema %q: %v", path, err)
	}
	defer f.Close()

	return yaml.LoadDefinition(f)
}

// newParser returns the parser for a query dialect.
func newParser(dialect string) (harvest.Parser, error) {
	switch dialect {
	case "", "css":
		return goquery.NewParser(), nil
	case "xpath":
		return htmlquery.NewParser(), nil
	case "xml":
		return etree.NewParser(), nil
	default:
		return nil, harvest.Errorf(harvest.EINVALID, "unknown dialect %q", dialect)
	}
}
