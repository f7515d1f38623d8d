package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

const minPasswordLength = 6

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp      = errors.New("help provided")
	errNotAdmin  = errors.New("user is not an admin")
	errUserExist = errors.New("a user with this email already exists")
	errNotFound  = errors.New("user not found")
)

type commandLine struct {
	users repository.UserRepository
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createadmin -name NAME -email EMAIL - create an admin account (password prompted)")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset a user's password (password prompted)")
	fmt.Fprintln(cli.out, "  deleteadmin -email EMAIL - delete an admin account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "createadmin":
		fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		name := fs.String("name", "", "Display name of the admin.")
		email := fs.String("email", "", "Login email of the admin. The password will be prompted next.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			fs.Usage()
			return errHelp
		}
		return cli.createAdmin(*name, *email, pwd)
	case "resetpassword":
		fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		email := fs.String("email", "", "The user's email. The password will be prompted next.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*email) == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			fs.Usage()
			return errHelp
		}
		return cli.resetPassword(*email, pwd)
	case "deleteadmin":
		fs := flag.NewFlagSet("deleteadmin", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		email := fs.String("email", "", "Email of the admin to delete.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*email) == "" {
			fs.Usage()
			return errHelp
		}
		return cli.deleteAdmin(*email)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) > 0 && len(pwd) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return string(pwd), nil
}

func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	email = models.NormalizeEmail(email)

	if _, err := cli.users.GetByEmail(ctx, email); err == nil {
		return errUserExist
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := models.User{Name: strings.TrimSpace(name), Email: email, Role: models.RoleAdmin}
	if err := user.SetPassword(pwd); err != nil {
		return err
	}
	if err := cli.users.Create(ctx, &user); err != nil {
		return err
	}

	fmt.Fprintln(cli.out, color.GreenString("admin %s created (id %d)", user.Email, user.ID))
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	user, err := cli.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := user.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.users.Update(ctx, user.ID, map[string]interface{}{"password_hash": user.PasswordHash}); err != nil {
		return err
	}

	fmt.Fprintln(cli.out, color.GreenString("password reset for %s", user.Email))
	return nil
}

func (cli *commandLine) deleteAdmin(email string) error {
	ctx := context.Background()
	user, err := cli.lookup(ctx, email)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return errNotAdmin
	}
	if err := cli.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	fmt.Fprintln(cli.out, color.YellowString("admin %s deleted", user.Email))
	return nil
}

func (cli *commandLine) lookup(ctx context.Context, email string) (models.User, error) {
	user, err := cli.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, errNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
