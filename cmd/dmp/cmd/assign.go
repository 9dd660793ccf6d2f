package cmd

import (
	"log/slog"
	"strconv"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/spf13/cobra"
)

var userIDs []int64
var datapoints []int64
var numberValues []int64
var stringValues []string

func init() {
	rootCmd.AddCommand(assignCmd)
	assignCmd.PersistentFlags().Int64SliceVarP(&userIDs, "user", "u", nil, "user id to assign to (repeatable)")
	assignCmd.MarkPersistentFlagRequired("user")

	assignCmd.AddCommand(assignEventCmd)
	assignCmd.AddCommand(assignEventsCmd)
	assignCmd.AddCommand(assignNumberAttributeCmd)
	assignCmd.AddCommand(assignStringAttributeCmd)

	assignNumberAttributesCmd.Flags().Int64SliceVarP(&datapoints, "datapoint", "d", nil, "datapoint id (repeatable, paired with --value)")
	assignNumberAttributesCmd.Flags().Int64SliceVar(&numberValues, "value", nil, "attribute value (repeatable, paired with --datapoint)")
	assignNumberAttributesCmd.MarkFlagRequired("datapoint")
	assignNumberAttributesCmd.MarkFlagRequired("value")
	assignCmd.AddCommand(assignNumberAttributesCmd)

	assignStringAttributesCmd.Flags().Int64SliceVarP(&datapoints, "datapoint", "d", nil, "datapoint id (repeatable, paired with --value)")
	assignStringAttributesCmd.Flags().StringSliceVar(&stringValues, "value", nil, "attribute value (repeatable, paired with --datapoint)")
	assignStringAttributesCmd.MarkFlagRequired("datapoint")
	assignStringAttributesCmd.MarkFlagRequired("value")
	assignCmd.AddCommand(assignStringAttributesCmd)
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign datapoints and attributes to user ids",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var assignEventCmd = &cobra.Command{
	Use:   "event <datapoint>",
	Short: "Assign a single datapoint event",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		datapoint, err := strconv.ParseInt(args[0], 10, 64)
		cobra.CheckErr(err)

		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignEvent(cmd.Context(), userIDs, datapoint)
		reportResults(results)
		cobra.CheckErr(err)
	},
}

var assignEventsCmd = &cobra.Command{
	Use:   "events <datapoint>...",
	Short: "Assign multiple datapoint events",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dps, err := parseInt64Args(args)
		cobra.CheckErr(err)

		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignEvents(cmd.Context(), userIDs, dps)
		reportResults(results)
		cobra.CheckErr(err)
	},
}

var assignNumberAttributeCmd = &cobra.Command{
	Use:   "number-attribute <datapoint> <value>",
	Short: "Assign a datapoint with a numeric attribute",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		datapoint, err := strconv.ParseInt(args[0], 10, 64)
		cobra.CheckErr(err)
		value, err := strconv.ParseInt(args[1], 10, 64)
		cobra.CheckErr(err)

		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignNumberAttribute(cmd.Context(), userIDs, datapoint, value)
		reportResults(results)
		cobra.CheckErr(err)
	},
}

var assignNumberAttributesCmd = &cobra.Command{
	Use:   "number-attributes",
	Short: "Assign multiple datapoints with numeric attributes",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignNumberAttributes(cmd.Context(), userIDs, datapoints, numberValues)
		reportResults(results)
		cobra.CheckErr(err)
	},
}

var assignStringAttributeCmd = &cobra.Command{
	Use:   "string-attribute <datapoint> <value>",
	Short: "Assign a datapoint with a string attribute",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		datapoint, err := strconv.ParseInt(args[0], 10, 64)
		cobra.CheckErr(err)

		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignStringAttribute(cmd.Context(), userIDs, datapoint, args[1])
		reportResults(results)
		cobra.CheckErr(err)
	},
}

var assignStringAttributesCmd = &cobra.Command{
	Use:   "string-attributes",
	Short: "Assign multiple datapoints with string attributes",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		cobra.CheckErr(err)

		results, err := client.AssignStringAttributes(cmd.Context(), userIDs, datapoints, stringValues)
		reportResults(results)
		cobra.CheckErr(err)
	},
}

func parseInt64Args(args []string) ([]int64, error) {
	out := make([]int64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func reportResults(results []dmp.Result) {
	for _, r := range results {
		if r.OK() {
			slog.Info("assigned", "userId", r.EncodedID, "status", r.StatusCode)
		} else {
			slog.Error("assignment failed", "userId", r.EncodedID, "status", r.StatusCode, "error", r.Err)
		}
	}
}
