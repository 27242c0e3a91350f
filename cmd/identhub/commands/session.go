package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"identhub/internal/session"
	"identhub/internal/storage"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset persisted session state",
	}
	cmd.AddCommand(sessionShowCmd(), sessionResetCmd())
	return cmd
}

func openProvider(cmd *cobra.Command, token string) (*session.Provider, func(), error) {
	backend, err := storage.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if c, ok := backend.(storage.Closer); ok {
		closeFn = func() { _ = c.Close() }
	}
	provider, err := session.Open(cmd.Context(), backend, token, session.WithLogger(log))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return provider, closeFn, nil
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <token>",
		Short: "Print the persisted state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, closeFn, err := openProvider(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			out, err := json.MarshalIndent(provider.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func sessionResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <token>",
		Short: "Delete the persisted state so the next start begins fresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, closeFn, err := openProvider(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			if err := provider.Clear(cmd.Context()); err != nil {
				return err
			}
			log.Info("session state cleared", "token", args[0])
			return nil
		},
	}
}
