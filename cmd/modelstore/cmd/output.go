package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printResult writes a result in the requested output format. text renders the text format.
func printResult(w io.Writer, data interface{}, text func(io.Writer) error) error {
	switch modelstoreFlags.output {
	case outputJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case outputYAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case outputText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", modelstoreFlags.output)
	}
}
