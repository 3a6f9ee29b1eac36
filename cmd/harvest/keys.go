package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the keys command.
func (c *KeysCmd) Run(deps *Dependencies) error {
	def, err := loadDefinition(c.Schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	for _, key := range def.TranslatableKeys() {
		fmt.Fprintln(deps.Stdout, key)
	}
	return nil
}
