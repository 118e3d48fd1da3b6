package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/samirrijal/mapart/internal/core/domain"
)

func watchCmd() *cobra.Command {
	var (
		server string
		token  string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail a session's notifications",
		// Only talks to the API; no maps credentials needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger("info")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := watchURL(server, token)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, _, err := websocket.Dial(ctx, u, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", server, err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "")
			logger.Info("watching", "server", server)

			for {
				var n domain.Notification
				if err := wsjson.Read(ctx, conn, &n); err != nil {
					if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n", n.Time.Local().Format("15:04:05"), n.Level, n.Message)
			}
		},
	}
	cmd.Flags().StringVar(&server, "server", "ws://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&token, "token", "", "session token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// watchURL points base at the /ws relay, switching http schemes to ws.
func watchURL(base, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
