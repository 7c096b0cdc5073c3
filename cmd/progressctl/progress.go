package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var data string

	syncCmd := &cobra.Command{
		Use:   "sync DATE",
		Short: "Replace the day's record with a full snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(http.MethodPut, args[0], data)
		},
	}
	syncCmd.Flags().StringVarP(&data, "data", "d", "{}", "Record snapshot as JSON")
	rootCmd.AddCommand(syncCmd)

	var mergeData string
	mergeCmd := &cobra.Command{
		Use:   "merge DATE",
		Short: "Merge a delta into the day's record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: merge DATE")
			}
			return runWrite(http.MethodPatch, args[0], mergeData)
		},
	}
	mergeCmd.Flags().StringVarP(&mergeData, "data", "d", "{}", "Record delta as JSON")
	rootCmd.AddCommand(mergeCmd)

	var granularity string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Read aggregated progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectFlag == "" {
				return fmt.Errorf("--project required")
			}
			body, err := exec(newRestClient().R().
				SetQueryParam("granularity", granularity),
				http.MethodGet, fmt.Sprintf("/api/projects/%s/progress", projectFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	getCmd.Flags().StringVarP(&granularity, "granularity", "g", "daily", "daily | weekly | monthly | yearly")
	rootCmd.AddCommand(getCmd)

	var delDate string
	var delAll bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the caller's records (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectFlag == "" {
				return fmt.Errorf("--project required")
			}
			if !delAll && delDate == "" {
				return fmt.Errorf("--date or --all required")
			}
			req := newRestClient().R()
			if delAll {
				req.SetQueryParam("all", "true")
			} else {
				req.SetQueryParam("date", delDate)
			}
			_, err := exec(req, http.MethodDelete, fmt.Sprintf("/api/projects/%s/progress", projectFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&delDate, "date", "", "Date to delete (YYYY-MM-DD)")
	deleteCmd.Flags().BoolVar(&delAll, "all", false, "Delete every record for the project")
	rootCmd.AddCommand(deleteCmd)

	var sessData string
	sessionsCmd := &cobra.Command{
		Use:   "sessions DATE",
		Short: "Append session log entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectFlag == "" {
				return fmt.Errorf("--project required")
			}
			var entries []map[string]interface{}
			if err := json.Unmarshal([]byte(sessData), &entries); err != nil {
				return fmt.Errorf("--data must be a JSON array of session entries: %w", err)
			}
			payload := map[string]interface{}{"date": args[0], "sessions": entries}
			body, err := exec(newRestClient().R().SetBody(payload),
				http.MethodPost, fmt.Sprintf("/api/projects/%s/sessions", projectFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	sessionsCmd.Flags().StringVarP(&sessData, "data", "d", "[]", "Session entries as a JSON array")
	rootCmd.AddCommand(sessionsCmd)
}

func runWrite(method, date, data string) error {
	if projectFlag == "" {
		return fmt.Errorf("--project required")
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return fmt.Errorf("--data must be a JSON object: %w", err)
	}
	body, err := exec(newRestClient().R().SetBody(payload), method,
		fmt.Sprintf("/api/projects/%s/progress/%s", projectFlag, date))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(body))
	return nil
}
