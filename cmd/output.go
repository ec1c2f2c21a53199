package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/s0up4200/s2match/rallyhere"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printJSON writes v as indented JSON followed by a newline
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// callOptions turns the persistent flags into per-call client options
func callOptions() []rallyhere.CallOption {
	if noCache {
		return []rallyhere.CallOption{rallyhere.NoCache()}
	}
	return nil
}
