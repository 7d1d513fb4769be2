package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/potluck/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		format string
		width  int
		title  string
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Sanitize editor HTML for display",
		Long:  "Reads editor HTML from file or stdin and writes it sanitized as an HTML fragment, a standalone page, or terminal text.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(""); err != nil {
				return err
			}
			defer a.close()

			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			r, err := render.New(render.WithLogger(a.logger))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "html":
				_, err = fmt.Fprintln(out, r.Mount(raw))
			case "page":
				err = r.Page(out, title, raw)
			case "text":
				var s string
				if s, err = r.Terminal(raw, width); err == nil {
					_, err = fmt.Fprintln(out, s)
				}
			default:
				return fmt.Errorf("unknown format %q (want html, page or text)", format)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format: html, page or text")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "wrap width for text output")
	cmd.Flags().StringVar(&title, "title", "potluck", "page title for page output")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
