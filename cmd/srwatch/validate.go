package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/srkit/srwatch"
)

// validateLine checks one line of recorded output. Lines are either bare
// enriched records or stdout sink envelopes; resource envelopes are skipped.
func validateLine(v *srwatch.Validator, line []byte) (checked bool, err error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(line, &env) == nil {
		switch env.Type {
		case "resource":
			return false, nil
		case "record":
			return true, v.Validate(env.Data)
		}
	}
	return true, v.Validate(line)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <records.jsonl>",
		Short: "Check recorded output against the enriched record schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := srwatch.NewValidator()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 64*1024), 64<<20)
			var n, valid, invalid int
			for sc.Scan() {
				n++
				line := bytes.TrimSpace(sc.Bytes())
				if len(line) == 0 {
					continue
				}
				checked, err := validateLine(v, line)
				switch {
				case !checked:
				case err != nil:
					invalid++
					fmt.Fprintf(out, "line %d: %v\n", n, err)
				default:
					valid++
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d valid, %d invalid\n", valid, invalid)
			if invalid > 0 {
				return fmt.Errorf("validate: %d invalid records", invalid)
			}
			return nil
		},
	}
}
