package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/seuss/internal/seuss/app"
	"github.com/aussiebroadwan/seuss/internal/seuss/service"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

func createAccountCmd() *cobra.Command {
	var (
		username string
		password string
		role     string
		disabled bool
		locked   bool
	)

	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create a local account",
		Long: `Create a local account bound to one of the standard roles.

When --password is omitted a random password is generated and printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generated := password == ""
			if generated {
				var err error
				if password, err = cryptox.GeneratePassword(24); err != nil {
					return err
				}
			}

			var opts []service.AccountOption
			if disabled {
				opts = append(opts, service.Disabled())
			}
			if locked {
				opts = append(opts, service.Locked())
			}

			accounts, closeDB, err := openAccounts()
			if err != nil {
				return err
			}
			defer closeDB()

			acct, err := accounts.CreateAccount(cmd.Context(), username, password, role, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created account %s (%s) with role %s\n", acct.Username, acct.ID, role)
			if !acct.CanLogin() {
				fmt.Fprintf(out, "account cannot log in (enabled=%t locked=%t)\n", acct.Enabled, acct.Locked)
			}
			if generated {
				fmt.Fprintf(out, "password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (generated when empty)")
	cmd.Flags().StringVarP(&role, "role", "r", privilege.RoleReadOnly, "Role: Administrator, Operator or ReadOnly")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the account disabled")
	cmd.Flags().BoolVar(&locked, "locked", false, "Create the account locked")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func setPasswordCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "set-password [password]",
		Short: "Replace the password of a local account",
		Long: `Replace the password of a local account.

The password is read from the first line of stdin when not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			accounts, closeDB, err := openAccounts()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := accounts.SetPassword(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password changed for %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account user name")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// openAccounts opens the configured database and returns an account service
// over it. The returned func closes the database.
func openAccounts() (*service.AccountService, func(), error) {
	cfg := app.LoadConfig()

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	db, err := app.OpenDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, nil, err
	}
	accounts := &service.AccountService{Store: db, Hasher: cryptox.NewHasher(pepper)}
	return accounts, func() { _ = db.Close() }, nil
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the argon2id hash of a password",
		Long: `Print the stored form of a password using the configured pepper file.

The password is read from the first line of stdin when not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			pepper, err := cryptox.LoadOrCreatePepper(app.LoadConfig().PepperFile)
			if err != nil {
				return fmt.Errorf("failed to load pepper: %w", err)
			}

			hash, err := cryptox.NewHasher(pepper).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
