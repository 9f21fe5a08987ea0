package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"leavesys/internal/domain/account"
)

var accountHeaders = []string{
	"employeeId", "name", "password", "permission",
	"annualLeave", "sickLeave", "menstrualLeave", "personalLeave",
}

// AccountsCSVName returns the roster export name for one day,
// <prefix><yyyymmdd>.csv.
func AccountsCSVName(prefix string, now time.Time) string {
	return prefix + now.Format("20060102") + ".csv"
}

// AccountsCSV writes the roster to a transient file inside a fresh temp
// directory and returns its path. cleanup removes the directory; callers
// must run it after the transfer, whether or not the transfer succeeded.
func AccountsCSV(accounts []account.Account, prefix string, now time.Time) (string, func(), error) {
	dir, err := os.MkdirTemp("", "leavesys-export-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, AccountsCSVName(prefix, now))
	if err := writeAccountsCSV(path, accounts); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func writeAccountsCSV(path string, accounts []account.Account) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(accountHeaders); err != nil {
		return err
	}
	for _, acct := range accounts {
		row := []string{
			acct.EmployeeID,
			acct.Name,
			acct.PasswordHash,
			acct.Permission.Label(),
			acct.Quotas.AnnualLeave.String(),
			acct.Quotas.SickLeave.String(),
			acct.Quotas.MenstrualLeave.String(),
			acct.Quotas.PersonalLeave.String(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
