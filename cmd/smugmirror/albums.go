package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smugmirror/pkg/ui"
)

// albumsCmd lists albums without downloading
var albumsCmd = &cobra.Command{
	Use:   "albums <user>",
	Short: "List a user's albums and where they would be mirrored",
	Long: `List every album of a SmugMug user with its URL path and local
directory. Albums selected by --album/--albums are marked with '*'.`,
	Example: `  smugmirror albums jdoe
  smugmirror albums jdoe --albums 'Trip 2019$Family'`,
	Args: cobra.ExactArgs(1),
	RunE: runAlbums,
}

func init() {
	rootCmd.AddCommand(albumsCmd)
	albumsCmd.Flags().StringArrayVarP(&mirrorOpts.album, "album", "a", nil, "album name to mark as selected (repeatable)")
	albumsCmd.Flags().StringVar(&mirrorOpts.albumList, "albums", "", `"$"-separated album names to mark as selected`)
	albumsCmd.Flags().StringVarP(&mirrorOpts.output, "output", "o", "", "output directory used to compute album paths")
	albumsCmd.Flags().StringVar(&mirrorOpts.session, "session", "", "SMSESS session cookie value")
	albumsCmd.Flags().StringVar(&mirrorOpts.endpoint, "endpoint", "", "gallery base URL")
}

func runAlbums(cmd *cobra.Command, args []string) error {
	user := strings.TrimSpace(args[0])

	cfg, err := loadConfig(cmd, user)
	if err != nil {
		return withExitCode(1, err)
	}
	a, err := newApp(cfg)
	if err != nil {
		return withExitCode(1, err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	listings, err := a.mirror.Albums(ctx)
	if err != nil {
		return withExitCode(1, err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tNAME\tURL PATH\tDIRECTORY")
	selected := 0
	for _, l := range listings {
		mark := " "
		if l.Selected {
			mark = "*"
			selected++
		}
		dir := l.Dir
		if l.DirErr != nil {
			dir = fmt.Sprintf("(invalid path: %v)", l.DirErr)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, l.Album.Name, l.Album.URLPath, dir)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ui.PrintInfo("Albums", fmt.Sprintf("%d listed, %d selected", len(listings), selected))
	return nil
}
