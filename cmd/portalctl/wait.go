package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func defaultPort() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the portal server to be ready",
	Long: `Wait for the portal server to be ready by polling /healthz.

The health check succeeds only once both PostgreSQL and Redis respond.

Example:
  portalctl wait
  portalctl wait --port 3000 --retries 60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")

		url := fmt.Sprintf("http://localhost:%d/healthz", port)
		if err := waitForServer(url, retries, time.Second); err != nil {
			return err
		}
		fmt.Println("Portal server is ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("port", "p", defaultPort(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForServer(url string, retries int, interval time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	fmt.Println("Waiting for the portal to be ready...")
	for i := 0; i < retries; i++ {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 300 {
				fmt.Println()
				return nil
			}
		}
		fmt.Print(".")
		time.Sleep(interval)
	}
	fmt.Println()
	return fmt.Errorf("portal is not ready after %d attempts", retries)
}
