package db

import (
	"context"
	"errors"
	"strings"

	"leavesys/internal/domain/account"
	"leavesys/internal/platform/config"
)

// Seed creates the bootstrap admin and, when enabled, a handful of demo
// employees. It goes through the account service so hashing and quota
// defaults apply, and it is idempotent: existing accounts are left alone.
func Seed(ctx context.Context, accounts *account.Service, cfg config.Config) error {
	if err := ensureAccount(ctx, accounts, account.CreateInput{
		EmployeeID: cfg.SeedAdminID,
		Name:       cfg.SeedAdminName,
		Password:   cfg.SeedAdminPassword,
		Permission: account.PermissionAdmin,
	}); err != nil {
		return err
	}

	if !cfg.SeedDemoAccounts {
		return nil
	}

	demo := []account.CreateInput{
		{EmployeeID: "EMP001", Name: "王小明", Password: "password", Permission: account.PermissionEmployee},
		{EmployeeID: "EMP002", Name: "李小華", Password: "password", Permission: account.PermissionEmployee},
		{EmployeeID: "EMP003", Name: "陳大文", Password: "password", Permission: account.PermissionEmployee},
	}
	for _, in := range demo {
		if err := ensureAccount(ctx, accounts, in); err != nil {
			return err
		}
	}
	return nil
}

func ensureAccount(ctx context.Context, accounts *account.Service, in account.CreateInput) error {
	if strings.TrimSpace(in.EmployeeID) == "" || strings.TrimSpace(in.Password) == "" {
		return nil
	}
	if _, err := accounts.Get(ctx, in.EmployeeID); err == nil {
		return nil
	} else if !errors.Is(err, account.ErrNotFound) {
		return err
	}
	_, err := accounts.Create(ctx, in)
	if errors.Is(err, account.ErrDuplicateEmployeeID) {
		return nil
	}
	return err
}
