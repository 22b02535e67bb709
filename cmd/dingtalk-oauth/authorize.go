package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/brizzai/dingtalk-oauth/internal/auth"
	"github.com/brizzai/dingtalk-oauth/internal/auth/client"
	"github.com/brizzai/dingtalk-oauth/internal/auth/constants"
	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type authorizeOutput struct {
	Profile string `json:"profile" yaml:"profile"`
	Mode    string `json:"mode" yaml:"mode"`
	URL     string `json:"url" yaml:"url"`
	State   string `json:"state" yaml:"state"`
}

func newAuthorizeURLCmd() *cobra.Command {
	var (
		mode        string
		redirectURI string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print an authorization redirect URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			m, err := client.ParseMode(mode)
			if err != nil {
				return err
			}

			r, err := requester.New(cfg.API.BaseURL, cfg.API.TimeoutDuration())
			if err != nil {
				return err
			}
			service := auth.NewService(auth.ServiceParams{Config: cfg, Requester: r})

			c, err := service.Use(cfg.Server.DefaultProfile)
			if err != nil {
				return err
			}

			u, err := c.AuthCodeURL(cmd.Context(), state.NewMemory(), m, redirectURI)
			if err != nil {
				return err
			}

			parsed, err := url.Parse(u)
			if err != nil {
				return err
			}
			return printAuthorize(output, authorizeOutput{
				Profile: cfg.Server.DefaultProfile,
				Mode:    string(m),
				URL:     u,
				State:   parsed.Query().Get(constants.ParamState),
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(client.ModeClassic), "Authorization endpoint: classic, qr or login")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Override the configured redirect URI")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func printAuthorize(format string, out authorizeOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(out)
	case "text", "":
		pterm.Info.Printfln("Profile %s, mode %s", pterm.LightGreen(out.Profile), pterm.LightGreen(out.Mode))
		pterm.Info.Printfln("State %s", out.State)
		fmt.Println(out.URL)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, expected text, json or yaml", format)
	}
}
