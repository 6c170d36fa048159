package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage your account on the planner server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the planner server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the planner server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the planner server",
	RunE:  runRegister,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset your password",
	RunE:  runReset,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	RunE:  runStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(resetCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("email", "", "Login using magic link for this email")
	loginCmd.Flags().String("token", "", "Verify magic link token")
	resetCmd.Flags().String("email", "", "Email of the account")
	resetCmd.Flags().String("token", "", "Reset token from the reset link")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

func promptPassword(label string) string {
	fmt.Print(label)
	b, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	email, _ := cmd.Flags().GetString("email")
	token, _ := cmd.Flags().GetString("token")
	reader := bufio.NewReader(os.Stdin)

	if token == "" && email != "" {
		fmt.Printf("🔄 Requesting magic link for %s...\n", email)
		issued, err := client.RequestMagicLink(ctx, email)
		if err != nil {
			return err
		}
		fmt.Println("📬 Magic link requested! Check your email (or server logs in dev).")
		if issued != "" {
			fmt.Printf("🔑 Development Token: %s\n", issued)
		}

		token = prompt(reader, "Enter Magic Link Token: ")
		if token == "" {
			fmt.Println("❌ Token required.")
			return nil
		}
	}

	if token != "" {
		fmt.Printf("🔄 Verifying magic link...\n")
		if err := client.VerifyMagicLink(ctx, token); err != nil {
			return err
		}
		fmt.Println("✅ Logged in successfully!")
		return nil
	}

	username := prompt(reader, "Username or email: ")
	password := promptPassword("Password: ")

	fmt.Println("🔄 Logging in...")
	if err := client.Login(ctx, username, password); err != nil {
		return err
	}

	fmt.Println("✅ Logged in successfully!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}

	if !client.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Println("🔄 Logging out...")
	if err := client.Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	email := prompt(reader, "Email: ")
	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm Password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("🔄 Creating account...")
	if err := client.Register(cmd.Context(), username, email, password); err != nil {
		return err
	}

	fmt.Println("✅ Account created and logged in!")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	reader := bufio.NewReader(os.Stdin)

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email = prompt(reader, "Email: ")
		}

		fmt.Printf("🔄 Requesting password reset for %s...\n", email)
		issued, err := client.RequestPasswordReset(ctx, email)
		if err != nil {
			return err
		}
		fmt.Println("📬 If the account exists, a reset link is on its way.")
		if issued != "" {
			fmt.Printf("🔑 Development Token: %s\n", issued)
		}

		token = prompt(reader, "Enter Reset Token: ")
		if token == "" {
			fmt.Println("❌ Token required.")
			return nil
		}
	}

	password := promptPassword("New Password: ")
	confirm := promptPassword("Confirm Password: ")
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := client.ConfirmPasswordReset(ctx, token, password); err != nil {
		return err
	}

	fmt.Println("✅ Password changed. Log in again with 'weekplanner auth login'.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}

	fmt.Printf("Server: %s\n", client.ServerURL())
	if !client.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	user, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.Username, user.Email)
	if exp := client.Session().ExpiresAt; !exp.IsZero() {
		fmt.Printf("Session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
