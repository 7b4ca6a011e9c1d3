package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// render writes v to stdout in the format selected by --format. The text
// callback produces the human-readable default.
func render(cmd *cli.Command, v any, text func() string) error {
	switch strings.ToLower(cmd.String("format")) {
	case "", "text":
		fmt.Println(text())
		return nil
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q (want text, json, or yaml)", cmd.String("format")), 2)
	}
}
