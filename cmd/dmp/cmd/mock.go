package cmd

import (
	"log/slog"

	"github.com/cloudtechnologies/dmp-go/pkg/dmpmock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(mockCmd)
	mockCmd.Flags().String("addr", ":8089", "listen address")
	mockCmd.Flags().String("email", "etl@example.com", "accepted login email")
	mockCmd.Flags().String("password", "s3cret", "accepted login password")
	viper.BindPFlag("mock_addr", mockCmd.Flags().Lookup("addr"))
	viper.BindPFlag("mock_email", mockCmd.Flags().Lookup("email"))
	viper.BindPFlag("mock_password", mockCmd.Flags().Lookup("password"))
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run an in-memory DMP API for local development",
	Run: func(cmd *cobra.Command, args []string) {
		addr := viper.GetString("mock_addr")
		server := dmpmock.NewServer(viper.GetString("mock_email"), viper.GetString("mock_password"))
		slog.Info("Starting mock DMP API", "addr", addr)
		cobra.CheckErr(server.Start(addr))
	},
}
