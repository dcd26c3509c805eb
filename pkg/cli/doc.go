/*
Package cli provides helpers shared by the retainer commands.

Pipeline results and status reports are printed as aligned text, with row
counts and relative times rendered by go-humanize, or as JSON:

	format, err := cli.ParseOutputFormat(flagOutput)
	if err != nil {
		return err
	}
	return cli.WriteResult(os.Stdout, format, result)

StepProgress prints each committed step while a pipeline runs, and
ExitCode maps command errors to process exit codes.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
