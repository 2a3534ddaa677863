package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"Gin_postgres_redis_library/controllers"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newCreateAdminCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "createadmin",
		Short: "Create an admin account, or promote an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := loadConfig()
			conn, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := conn.DB(); err == nil {
				defer sqlDB.Close()
			}

			msg, err := createAdmin(cmd.Context(), db.NewRepo(conn), username, func() (string, error) {
				return readPassword(cmd.OutOrStdout(), cmd.InOrStdin())
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "admin username")
	return cmd
}

// createAdmin 用户已存在时只提升为管理员，不改密码
func createAdmin(ctx context.Context, repo *db.Repo, username string, password func() (string, error)) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("username is required")
	}

	u, err := repo.FindUserByUsername(ctx, username)
	switch {
	case err == nil:
		if err := repo.SetUserAdmin(ctx, u.ID, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("user %q promoted to admin", username), nil
	case !errors.Is(err, db.ErrNotFound):
		return "", err
	}

	pw, err := password()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	hash, err := controllers.HashPassword(pw)
	if err != nil {
		return "", err
	}
	nu := &models.User{ID: uuid.NewString(), Username: username, PasswordHash: hash, IsAdmin: true}
	if err := repo.CreateUser(ctx, nu); err != nil {
		return "", err
	}
	return fmt.Sprintf("admin %q created", username), nil
}

// readPassword 终端下不回显；管道输入时读一行
func readPassword(out io.Writer, in io.Reader) (string, error) {
	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
