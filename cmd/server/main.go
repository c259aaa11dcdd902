package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bankfeed/bot-netbranch/internal/bank/netbranch"
	"github.com/bankfeed/bot-netbranch/internal/bankbot"
	"github.com/bankfeed/bot-netbranch/internal/config"
	"github.com/bankfeed/bot-netbranch/internal/logging"
	srv "github.com/bankfeed/bot-netbranch/internal/server"
	"github.com/bankfeed/bot-netbranch/internal/websession"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bot-netbranch",
	Short: "Scrape balances and transactions from a NetBranch banking portal",
	Long: `bot-netbranch logs into a NetBranch-style online-banking portal with
member credentials and serves the scraped account balances and transaction
histories as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}

		web := websession.NewHTTPSession(nil, log)
		bot, err := netbranch.New(bankbot.Credential{
			URL:      cfg.URL,
			Account:  cfg.Account,
			Password: cfg.Password,
		}, web, log)
		if err != nil {
			return err
		}

		server := srv.New(bot, cfg.ServerPort, log)
		log.Info().Msgf("Starting NetBranch bot server on %s", server.Addr)
		log.Info().Msgf("http://localhost%s/ping", server.Addr)
		log.Info().Msgf("http://localhost%s/accounts", server.Addr)
		log.Info().Msgf("http://localhost%s/logout", server.Addr)
		return server.ListenAndServe()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to the configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
