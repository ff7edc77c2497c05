// Command authkit-demo exercises the authentication flows against a live
// gateway from the terminal. It is a development aid, not a product surface.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/studyhall/authkit"
	"github.com/studyhall/authkit/store"
)

type config struct {
	GatewayURL     string        `env:"AUTHKIT_GATEWAY_URL" env-required:"true"`
	GatewayTimeout time.Duration `env:"AUTHKIT_GATEWAY_TIMEOUT" env-default:"15s"`
	StorePath      string        `env:"AUTHKIT_STORE_PATH" env-default:""`
	Debug          bool          `env:"AUTHKIT_DEBUG" env-default:"false"`
}

func mustLoadConfig() *config {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return &cfg
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	email := flag.String("email", "", "account email")
	quick := flag.Bool("quick", false, "attempt quick login instead of password login")
	list := flag.Bool("list", false, "list remembered accounts and exit")
	logout := flag.Bool("logout", false, "clear the stored session and exit")
	flag.Parse()

	cfg := mustLoadConfig()
	lgr := setupLogger(cfg.Debug)

	client, err := buildClient(cfg)
	if err != nil {
		lgr.Error("client setup failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := run(context.Background(), lgr, client, *email, *quick, *list, *logout); err != nil {
		lgr.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func buildClient(cfg *config) (*authkit.Client, error) {
	clientCfg := authkit.DefaultConfig()
	clientCfg.Gateway = authkit.GatewayConfig{
		BaseURL:   cfg.GatewayURL,
		Timeout:   cfg.GatewayTimeout,
		UserAgent: "authkit-demo",
	}
	// No captcha widget on the terminal.
	clientCfg.Login.RequireCaptcha = false

	builder := authkit.New().
		WithConfig(clientCfg).
		WithAnalyticsSink(authkit.NewJSONWriterSink(os.Stderr))

	if cfg.StorePath != "" {
		fileStore, err := store.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		builder.WithStore(fileStore)
	}

	return builder.Build()
}

func run(ctx context.Context, lgr *slog.Logger, client *authkit.Client, email string, quick, list, logout bool) error {
	switch {
	case logout:
		if err := client.Logout(ctx); err != nil {
			return err
		}
		lgr.Info("logged out")
		return nil

	case list:
		entries, err := client.RememberedAccounts(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Printf("%s\trole=%s\tneeds_password=%v\tlast_login=%s\n",
				entry.Email, entry.Role, entry.NeedsPassword, entry.LastLoginAt.Format(time.RFC3339))
		}
		return nil
	}

	if cred, err := client.RestoreSession(ctx); err == nil {
		lgr.Info("session restored", "user_id", cred.UserID, "role", cred.Role)
		return nil
	} else if !errors.Is(err, authkit.ErrNoSession) && !errors.Is(err, authkit.ErrSessionExpired) {
		return err
	}

	if email == "" {
		return errors.New("-email required when no session is stored")
	}

	if quick {
		outcome, err := client.QuickLogin(ctx, email)
		if err != nil {
			return err
		}
		return report(lgr, outcome)
	}

	password, err := prompt("password: ")
	if err != nil {
		return err
	}

	outcome, err := client.Login(ctx, authkit.LoginInput{
		Email:         email,
		Password:      password,
		AcceptedTerms: true,
		RememberMe:    true,
	})
	if err != nil {
		return err
	}

	if outcome.State == authkit.LoginVerificationRequired {
		outcome, err = runVerification(ctx, lgr, outcome.Verification)
		if err != nil {
			return err
		}
	}
	return report(lgr, outcome)
}

func runVerification(ctx context.Context, lgr *slog.Logger, session *authkit.VerificationSession) (*authkit.LoginOutcome, error) {
	lgr.Info("verification required", "email", session.Email())

	code, err := prompt("verification code: ")
	if err != nil {
		return nil, err
	}

	outcome, err := session.Paste(ctx, code)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, errors.New("incomplete verification code")
	}
	return outcome, nil
}

func report(lgr *slog.Logger, outcome *authkit.LoginOutcome) error {
	switch outcome.State {
	case authkit.LoginAuthenticated:
		lgr.Info("authenticated",
			"user_id", outcome.Credential.UserID,
			"role", outcome.Credential.Role,
			"destination", outcome.Destination,
		)
		return nil
	case authkit.LoginLocked:
		if outcome.UnlockAt != nil {
			return fmt.Errorf("account locked until %s", outcome.UnlockAt.Format(time.RFC3339))
		}
		return errors.New("account locked")
	default:
		return errors.New("unexpected login state")
	}
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
