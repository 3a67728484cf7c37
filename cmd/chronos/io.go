package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"chronos-reconciler/internal/infrastructure/router"
)

// readJSON decodes path into dst, "-" reads stdin
func readJSON(path string, dst interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return router.NewValidator().Validate(dst)
}

// writeJSON encodes v to path, "" or "-" writes stdout
func writeJSON(path string, v interface{}) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
