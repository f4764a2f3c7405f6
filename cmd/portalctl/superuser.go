package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/db"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/password"
	gormstore "github.com/confportal/conf-portal-api/pkg/server/store/gorm"
)

const minPasswordLength = 8

// errUserExists reports a skipped creation.
var errUserExists = errors.New("a user with this email or phone number already exists")

// superuserCmd represents the superuser command
var superuserCmd = &cobra.Command{
	Use:   "superuser",
	Short: "Manage superusers",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'superuser' requires a subcommand (create)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// superuserCreateCmd represents the superuser create command
var superuserCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Interactively create a superuser",
	Long: `Interactively create a verified, active superuser.

Prompts for an email, a phone number in E.164 form (+886912345678), a
password (twice) and an optional display name. Nothing is created when the
email or phone number is already registered.

Example:
  portalctl superuser create`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
		if err != nil {
			return err
		}

		p := newTerminalPrompter(os.Stdin, cmd.OutOrStdout())
		user, err := createSuperuser(cmd.Context(), p, gormstore.NewUsersStore(database), password.New(cfg.PasswordHashIterations))
		if errors.Is(err, errUserExists) {
			fmt.Fprintln(cmd.OutOrStdout(), "Skipped:", err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %s)\n", *user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(superuserCmd)
	superuserCmd.AddCommand(superuserCreateCmd)
}

type superuserStore interface {
	Exists(ctx context.Context, email, phone string) (bool, error)
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error
}

type hasher interface {
	Hash(plain string) (string, error)
}

// prompter reads answers line by line. secret reads without echo when it
// is set.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() (string, error)
}

func newTerminalPrompter(in *os.File, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if term.IsTerminal(int(in.Fd())) {
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(int(in.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) askSecret(label string) (string, error) {
	if p.secret == nil {
		return p.ask(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	return p.secret()
}

var validate = validator.New()

type superuserInput struct {
	Email       string `validate:"required,email"`
	PhoneNumber string `validate:"required,e164"`
	Password    string `validate:"required,min=8"`
}

// askUntilValid repeats a prompt until check accepts the answer.
func askUntilValid(p *prompter, label string, secret bool, check func(string) error) (string, error) {
	for {
		var (
			v   string
			err error
		)
		if secret {
			v, err = p.askSecret(label)
		} else {
			v, err = p.ask(label)
		}
		if err != nil {
			return "", err
		}
		if err := check(v); err != nil {
			fmt.Fprintln(p.out, "  ", err)
			continue
		}
		return v, nil
	}
}

func createSuperuser(ctx context.Context, p *prompter, users superuserStore, h hasher) (*model.User, error) {
	email, err := askUntilValid(p, "Email", false, func(v string) error {
		if validate.Var(v, "required,email") != nil {
			return errors.New("enter a valid email address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	phone, err := askUntilValid(p, "Phone number (E.164)", false, func(v string) error {
		if validate.Var(v, "required,e164") != nil {
			return errors.New("enter the number as +<country><number>, e.g. +886912345678")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	exists, err := users.Exists(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return nil, errUserExists
	}

	var plain string
	for {
		plain, err = askUntilValid(p, "Password", true, func(v string) error {
			if len(v) < minPasswordLength {
				return fmt.Errorf("the password needs at least %d characters", minPasswordLength)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		again, err := p.askSecret("Password (again)")
		if err != nil {
			return nil, err
		}
		if again == plain {
			break
		}
		fmt.Fprintln(p.out, "   passwords do not match")
	}

	displayName, err := p.ask("Display name (optional)")
	if err != nil {
		return nil, err
	}

	input := superuserInput{Email: email, PhoneNumber: phone, Password: plain}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	hash, err := h.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &model.User{
		Email:             &email,
		PhoneNumber:       &phone,
		PasswordHash:      &hash,
		IsActive:          true,
		Verified:          true,
		IsSuperuser:       true,
		IsAdmin:           true,
		PasswordChangedAt: &now,
	}
	profile := &model.UserProfile{}
	if displayName != "" {
		profile.DisplayName = &displayName
	}
	if err := users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}
	return user, nil
}
