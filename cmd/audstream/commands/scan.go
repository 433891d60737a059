// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/index"
)

func (a *app) scanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Sort the files of a directory into playable, unsupported and protected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd)
			return a.scan(cmd, args[0])
		},
	}

	cmd.Flags().Bool("all", false, "Also list unsupported and protected files")

	return cmd
}

func (a *app) scan(cmd *cobra.Command, dir string) error {
	ix := audstream.IndexDirectory(cmd.Context(), dir,
		index.WithLogger(a.logger),
		index.WithProgress(func(p int) {
			a.logger.Info("indexing", "dir", dir, "percent", p)
		}))
	defer ix.Close()

	if err := ix.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	all := a.v.GetBool("all")

	printList(w, "good", ix.Good(), true)
	printList(w, "unsupported", ix.Unsupported(), all)
	printList(w, "protected", ix.Protected(), all)

	return nil
}

func printList(w io.Writer, label string, paths []string, list bool) {
	fmt.Fprintf(w, "%s: %d\n", label, len(paths))
	if !list {
		return
	}
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
