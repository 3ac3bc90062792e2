package main

import (
	"encoding/json"
	"fmt"

	"github.com/anyt-io/notebook/pkg/manifest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var schemaCmd = withTracing(&cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of pspm.json",
	Long:  `Print the JSON Schema describing the pspm.json skill manifest.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := json.MarshalIndent(manifest.Schema(), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to render schema")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
})
