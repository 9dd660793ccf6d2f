package cmd

import (
	"fmt"
	"strconv"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
}

var encodeCmd = &cobra.Command{
	Use:   "encode <user-id>...",
	Short: "Encode decimal user ids into the 16-character hex wire form",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			cobra.CheckErr(err)
			encoded, err := dmp.EncodeUserID(id)
			cobra.CheckErr(err)
			fmt.Printf("%s %s\n", arg, encoded)
		}
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex-user-id>...",
	Short: "Decode 16-character hex user ids back to decimal",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			id, err := dmp.DecodeUserID(arg)
			cobra.CheckErr(err)
			fmt.Printf("%s %d\n", arg, id)
		}
	},
}
