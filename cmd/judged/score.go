package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

type scoreFlags struct {
	rubric string
	form   string
	strict bool
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an evaluation form offline and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd.OutOrStdout(), f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.rubric, "rubric", "", "Rubric YAML/JSON file (default: built-in rubric)")
	flags.StringVar(&f.form, "form", "-", "Form JSON file, - for stdin")
	flags.BoolVar(&f.strict, "strict", false, "Reject forms that could not be submitted")
	return cmd
}

func runScore(out io.Writer, f *scoreFlags) error {
	r, err := scoring.DefaultRubric()
	if f.rubric != "" {
		r, err = scoring.LoadRubricFile(f.rubric)
	}
	if err != nil {
		return err
	}

	var src io.Reader = os.Stdin
	if f.form != "-" {
		fh, err := os.Open(f.form)
		if err != nil {
			return err
		}
		defer fh.Close()
		src = fh
	}
	var form scoring.FormState
	if err := json.NewDecoder(src).Decode(&form); err != nil {
		return fmt.Errorf("read form: %w", err)
	}

	if f.strict {
		if err := scoring.ValidateSubmission(r, form); err != nil {
			return issuesErr(err)
		}
	}
	res, err := scoring.Evaluate(r, form.Sections)
	if err != nil {
		return issuesErr(err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// issuesErr exits with status 2 and one line per issue.
func issuesErr(err error) error {
	var lines []string
	for _, is := range scoring.Issues(err) {
		lines = append(lines, is.Error())
	}
	return &exitErr{code: 2, msg: strings.Join(lines, "\n")}
}
