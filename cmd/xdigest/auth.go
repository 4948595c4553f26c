package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xdigest/pkg/auth"
	"xdigest/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API credentials",
	Long: `Manage the API key and auth token used to read the home timeline.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables XDIGEST_API_KEY and XDIGEST_AUTH_TOKEN (read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store credentials under a profile",
	Example: `  # Interactive login to the default profile
  xdigest auth login

  # Login to a named profile
  xdigest auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked secrets",
	RunE:  runList,
}

var skipGuide bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&skipGuide, "no-guide", false, "do not print where to find the credentials")
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("initialize credential manager: %w", err)
	}

	name := profileArg(args)
	reader := bufio.NewReader(os.Stdin)

	if !skipGuide {
		auth.WriteCredentialGuide(os.Stdout)
		fmt.Println()
	}

	if existing, _ := manager.Retrieve(name); existing != nil && !existing.LastModified.IsZero() {
		fmt.Printf("⚠️  Profile '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	creds, err := terminalPrompt(os.Stdin, os.Stdout)()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	creds.Profile = name
	if !creds.Valid() {
		return auth.ErrInvalidCredentials
	}

	fmt.Println("\n📋 Summary:")
	masked := auth.Sanitize(creds)
	fmt.Printf("   Profile:    %s\n", masked.Profile)
	fmt.Printf("   API key:    %s\n", masked.APIKey)
	fmt.Printf("   Auth token: %s\n", masked.AuthToken)

	if err := manager.Store(creds); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials saved: " + name)
	if name != auth.DefaultProfile {
		fmt.Printf("\nUse them with:\n  xdigest crawl --profile %s\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("initialize credential manager: %w", err)
	}

	name := profileArg(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("remove profile %s: %w", name, err)
	}
	ui.PrintSuccess("Credentials removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'xdigest auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()
	for i, creds := range profiles {
		masked := auth.Sanitize(creds)
		fmt.Printf("%d. Profile: %s\n", i+1, masked.Profile)
		fmt.Printf("   API key: %s\n", masked.APIKey)
		fmt.Printf("   Auth token: %s\n", masked.AuthToken)
		if !masked.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", masked.LastModified.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("   Source: environment")
		}
		fmt.Println()
	}
	return nil
}
