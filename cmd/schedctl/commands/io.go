package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benvon/smart-schedule/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// maxRequestFileSize matches the API's request body limit
const maxRequestFileSize = 1 << 20

// readRequest decodes a YAML or JSON document into v. JSON is a subset of YAML,
// so both go through the YAML parser and are re-encoded as JSON so that the
// request types' json tags and custom unmarshalers apply.
func readRequest(cmd *cobra.Command, path string, v any) error {
	var src io.Reader
	if path == "" || path == "-" {
		src = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open request file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		src = f
	}

	raw, err := io.ReadAll(io.LimitReader(src, maxRequestFileSize+1))
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if len(raw) > maxRequestFileSize {
		return fmt.Errorf("request exceeds %d bytes", maxRequestFileSize)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("request is not valid YAML or JSON: %w", err)
	}
	if doc == nil {
		return errors.New("request is empty")
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("request must be a mapping with string keys: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// writeOutput renders v as indented JSON or as YAML keyed by the JSON field names
func writeOutput(w io.Writer, format string, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	switch strings.ToLower(format) {
	case "", "json":
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	case "yaml", "yml":
		var doc any
		if err := json.Unmarshal(encoded, &doc); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func describe(err error) error {
	if errors.Is(err, validation.ErrInvalidRequest) {
		return fmt.Errorf("invalid request: %s", validation.Describe(err))
	}
	return err
}
