package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/storage/github"
	"github.com/taskflow/taskflow/internal/ui"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the GitHub repository this board syncs with",
}

var (
	remoteToken  string
	remoteRepo   string
	remoteBranch string
)

var remoteSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Connect the board to a GitHub repository",
	Long: `Store the GitHub token and repository the board syncs with.

The token needs contents read/write access to the repository. The
connection is verified before the configuration is saved.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		cfg := github.Config{Token: remoteToken, Repo: remoteRepo, Branch: remoteBranch}
		if !cfg.IsConfigured() {
			fail(fmt.Errorf("both --token and --repo are required"))
		}

		client := github.NewClient(cfg, github.ClientOptions{Logger: a.logger})
		fmt.Printf("%s Testing connection to %s...\n", ui.RenderAccent("🔄"), cfg.Repo)
		if err := client.TestConnection(ctx); err != nil {
			fail(fmt.Errorf("connection test failed: %w", err))
		}

		if err := github.SaveConfig(ctx, a.local, cfg); err != nil {
			fail(err)
		}
		fmt.Printf("%s Connected to %s\n", ui.RenderPass("✓"), cfg.Repo)
		fmt.Printf("   Run 'taskflow sync' to sync the board\n")
	},
}

var remoteStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured remote and test the connection",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if !a.remote.IsConfigured() {
			fmt.Printf("%s No remote configured\n", ui.RenderWarn("⚠"))
			return
		}

		fmt.Printf("   Repository: %s\n", a.remote.Repo())
		if err := a.remote.TestConnection(ctx); err != nil {
			fmt.Printf("   Connection: %s (%v)\n", ui.RenderFail("failed"), err)
			return
		}
		fmt.Printf("   Connection: %s\n", ui.RenderPass("ok"))
	},
}

var remoteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Disconnect the board from its remote",
	Long: `Remove the stored GitHub configuration. Local data is untouched;
the board simply stops syncing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			fail(err)
		}
		defer a.Close()

		if err := github.ClearConfig(ctx, a.local); err != nil {
			fail(err)
		}
		fmt.Printf("%s Remote configuration removed\n", ui.RenderPass("✓"))
	},
}

func init() {
	remoteSetupCmd.Flags().StringVar(&remoteToken, "token", "", "GitHub token with contents access")
	remoteSetupCmd.Flags().StringVar(&remoteRepo, "repo", "", "repository as owner/name")
	remoteSetupCmd.Flags().StringVar(&remoteBranch, "branch", "main", "branch to sync with")

	remoteCmd.AddCommand(remoteSetupCmd)
	remoteCmd.AddCommand(remoteStatusCmd)
	remoteCmd.AddCommand(remoteClearCmd)
	rootCmd.AddCommand(remoteCmd)
}
