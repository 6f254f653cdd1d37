package commands

import (
	"github.com/spf13/cobra"

	"github.com/plcscope/plcscope/internal/application/browse"
	"github.com/plcscope/plcscope/internal/config"
	"github.com/plcscope/plcscope/internal/presentation/tui"
)

var (
	browseParser  string
	browseTz      string
	browseWatch   bool
	browseNoCache bool

	browseCmd = &cobra.Command{
		Use:   "browse <log-file>",
		Short: "Browse a log interactively as a timing diagram",
		Long: `Browse opens a full-screen timing diagram over a log file. The file is
loaded in fixed-duration chunks, so arbitrarily large logs stay within a
bounded memory footprint.

Keys: arrows pan, +/- zoom, g/G jump to the ends, b drops a bookmark,
n/p jump between bookmarks, s cycles the signal sort, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: runBrowse,
	}
)

func init() {
	browseCmd.Flags().StringVar(&browseParser, "parser", "",
		"Force a specific parser (default auto-detect)")
	browseCmd.Flags().StringVar(&browseTz, "timezone", "Local",
		"Timezone for displayed timestamps (e.g. Asia/Tokyo, UTC)")
	browseCmd.Flags().BoolVar(&browseWatch, "watch", true,
		"Reload automatically when the log file changes")
	browseCmd.Flags().BoolVar(&browseNoCache, "no-cache", false,
		"Skip the format detection cache")

	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, browseTz); err != nil {
		return err
	}

	// The watcher compares absolute paths, so expand before opening.
	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}

	session, err := browse.NewSession(&browse.Config{
		FilePath:      path,
		StateDir:      cfg.StateDir,
		CacheDir:      cfg.CacheDir,
		ParserName:    browseParser,
		Timezone:      browseTz,
		ChunkDuration: cfg.ChunkDuration,
		MaxChunks:     cfg.MaxChunks,
		MinZoom:       cfg.MinZoom,
		MaxZoom:       cfg.MaxZoom,
		NoCache:       browseNoCache,
		Watch:         browseWatch,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	return tui.Run(tui.Options{Session: session})
}
