/*
Package cli provides command-line helpers for the lite binary.

Output formatting renders tables as aligned text, JSON or CSV:

	table := &cli.Table{Headers: []string{"ID", "MODEL"}, Rows: rows, Data: models}
	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, table); err != nil {
		return err
	}

StreamPrinter writes a streamed reply to the terminal as it arrives and
prints a one-line summary when the stream ends.

SignalContext cancels a context on SIGINT or SIGTERM, and ExitCode maps
command errors to process exit codes.
*/
package cli
