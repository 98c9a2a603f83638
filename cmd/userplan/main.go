package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// Support tool for account adjustments: toggle premium, grant credits.
func main() {
	var (
		idFlag      string
		nameFlag    string
		premiumFlag string
		creditsFlag int
	)

	flag.StringVar(&idFlag, "id", "", "account ID to update (UUID)")
	flag.StringVar(&nameFlag, "name", "", "display name to set when the profile does not exist yet")
	flag.StringVar(&premiumFlag, "premium", "", "set premium plan (true or false, empty keeps current)")
	flag.IntVar(&creditsFlag, "credits", 0, "credits to grant on top of the current balance")
	flag.Parse()

	accountID := strings.TrimSpace(idFlag)
	if accountID == "" {
		exitWithError(errors.New("-id is required"))
	}
	if _, err := uuid.Parse(accountID); err != nil {
		exitWithError(fmt.Errorf("invalid account id: %w", err))
	}
	if premiumFlag == "" && creditsFlag == 0 {
		exitWithError(errors.New("nothing to do: pass -premium and/or -credits"))
	}
	if creditsFlag < 0 {
		exitWithError(errors.New("-credits must be positive"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	var profile struct {
		ID          string
		DisplayName string
		Premium     bool
		Credits     int
		Streak      int
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
	row := runner.QueryRow(ctx, sqlinline.QUpsertProfile, accountID, strings.TrimSpace(nameFlag))
	if err := row.Scan(&profile.ID, &profile.DisplayName, &profile.Premium, &profile.Credits,
		&profile.Streak, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		exitWithError(fmt.Errorf("failed to load profile: %w", err))
	}

	if premiumFlag != "" {
		premium := false
		switch strings.ToLower(premiumFlag) {
		case "true", "yes", "1":
			premium = true
		case "false", "no", "0":
		default:
			exitWithError(fmt.Errorf("invalid -premium value %q", premiumFlag))
		}
		if err := runner.QueryRow(ctx, sqlinline.QSetPremium, accountID, premium).Scan(&profile.Premium); err != nil {
			exitWithError(fmt.Errorf("failed to set premium: %w", err))
		}
	}

	if creditsFlag > 0 {
		if err := runner.QueryRow(ctx, sqlinline.QAddCredits, accountID, creditsFlag).Scan(&profile.Credits); err != nil {
			exitWithError(fmt.Errorf("failed to grant credits: %w", err))
		}
	}

	fmt.Printf("Account %s: premium=%t credits=%d\n", profile.ID, profile.Premium, profile.Credits)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "userplan:", err)
	os.Exit(1)
}
