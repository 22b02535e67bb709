package main

import (
	"fmt"

	"github.com/brizzai/dingtalk-oauth/internal/auth/signature"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var (
		timestamp int64
		secret    string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the signature of the legacy user info call",
		Long: `Compute base64(HMAC-SHA256(secret, timestamp)) as sent with
sns/getuserinfo_bycode. Without --secret the client secret of the selected
profile is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cred, err := cfg.Credential("")
				if err != nil {
					return fmt.Errorf("no --secret given and %w", err)
				}
				secret = cred.ClientSecret
			}
			if timestamp == 0 {
				timestamp = signature.Now()
			}

			pterm.Info.Printfln("Timestamp %d", timestamp)
			fmt.Println(signature.Sign(timestamp, secret))
			return nil
		},
	}

	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "Timestamp in milliseconds (defaults to now)")
	cmd.Flags().StringVar(&secret, "secret", "", "Client secret")
	return cmd
}
