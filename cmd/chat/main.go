package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat/internal/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server string
		author string
	)

	cmd := &cobra.Command{
		Use:          "roomchat",
		Short:        "Interactive room chat client",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if strings.TrimSpace(author) == "" {
				fmt.Fprint(out, "Username: ")
				if !in.Scan() {
					return errors.New("no username given")
				}
				author = strings.TrimSpace(in.Text())
			}
			if author == "" {
				return errors.New("username must not be empty")
			}

			s := &session{
				client: client.New(server),
				author: author,
				in:     in,
				out:    out,
			}
			return s.menu(ctx)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&author, "user", "", "username to chat as")

	return cmd
}
