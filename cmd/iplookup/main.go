package main

import (
	"encoding/json"
	"os"

	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/evyataryagoni/iptracker/internal/view"
	"github.com/spf13/cobra"
)

// This tool runs one lookup from a terminal and prints what the page would show
// Usage: go run ./cmd/iplookup [ip or domain]
func main() {
	appConfig := config.Load()

	log := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
		Output: os.Stderr,
	})

	client := geo.NewClient(geo.Config{
		BaseURL: appConfig.GeoAPIURL,
		APIKey:  appConfig.GeoAPIKey,
		Timeout: appConfig.GeoAPITimeout,
	}, nil, log)

	if err := newRootCmd(client, log).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(client geo.Lookuper, log *logger.Logger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "iplookup [ip or domain]",
		Short: "Look up where an IP address or domain is located",
		Long: `Looks up an IP address or domain with the ipify geolocation API and prints
the IP address, location, timezone, ISP and map coordinates.
Without an argument the public address of this machine is looked up.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tracker.New(client, tracker.State{}, nil, log)

			var err error
			if len(args) == 1 && args[0] != "" {
				_, err = t.Submit(cmd.Context(), args[0])
			} else {
				err = t.Start(cmd.Context(), "")
			}
			state := t.State()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if state.Error != "" {
					enc.Encode(models.ErrorResponse{Error: state.Error})
				} else {
					enc.Encode(state.Result)
				}
				return err
			}

			if rerr := view.MustNewRenderer().Text(cmd.OutOrStdout(), view.NewPage(state, view.NewSearchForm(""))); rerr != nil {
				return rerr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw lookup result as JSON")

	return cmd
}
