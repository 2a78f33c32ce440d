package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type demoAccount struct {
	email    string
	password string
	target   string
}

var demoAccounts = []demoAccount{
	{email: "user@example.com", password: "purple-monkey-dinosaur", target: "http://www.lighthouselabs.ca"},
	{email: "user2@example.com", password: "dishwasher-funk", target: "http://www.google.com"},
}

// SeedDemoData registers the demo accounts, gives each one link and has each
// account visit the other's link once.
func SeedDemoData(ctx context.Context, auth *AuthService, links *LinkService) error {
	logger := zap.L().With(zap.String("component", "Seed"))

	userIDs := make([]string, len(demoAccounts))
	codes := make([]string, len(demoAccounts))
	for i, acct := range demoAccounts {
		user, err := auth.Register(ctx, acct.email, acct.password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", acct.email, err)
		}
		userIDs[i] = user.ID

		code, err := links.Create(ctx, user.ID, acct.target)
		if err != nil {
			return fmt.Errorf("seed link for %s: %w", acct.email, err)
		}
		codes[i] = code
	}

	for i, code := range codes {
		visitor := userIDs[(i+1)%len(userIDs)]
		if _, err := links.RecordVisit(ctx, code, visitor); err != nil {
			return fmt.Errorf("seed visit on %s: %w", code, err)
		}
	}

	logger.Info("Demo data seeded", zap.Strings("codes", codes))
	return nil
}
