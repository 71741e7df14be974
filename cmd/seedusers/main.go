// Command seedusers converts a client/user roster Excel file into a SQL seed
// file with bcrypt-hashed passwords.
// Sheet "Clients": columns A=id, B=name. Sheet "Users": columns A=client id,
// B=username, C=email, D=full name, E=role, F=initial password. Data starts at
// row 2 on both sheets.
// Usage: go run ./cmd/seedusers roster.xlsx
// Output: db/seeds/users.sql
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"propval/internal/domain"
)

type clientEntry struct {
	id   string
	name string
}

type userEntry struct {
	clientID     string
	username     string
	email        string
	fullName     string
	role         domain.UserRole
	passwordHash string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seedusers <roster.xlsx>")
	}
	xlsxPath := os.Args[1]
	outPath := "db/seeds/users.sql"

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	clients, err := parseClientsSheet(f)
	if err != nil {
		return fmt.Errorf("parse Clients sheet: %w", err)
	}
	log.Printf("Clients sheet: %d entries", len(clients))

	users, err := parseUsersSheet(f)
	if err != nil {
		return fmt.Errorf("parse Users sheet: %w", err)
	}
	log.Printf("Users sheet: %d entries", len(users))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	w := func(format string, args ...interface{}) error {
		_, werr := fmt.Fprintf(out, format+"\n", args...)
		return werr
	}

	if err := w("-- Client and user seed data generated from %s.", xlsxPath); err != nil {
		return err
	}
	if err := w("BEGIN;"); err != nil {
		return err
	}
	for _, c := range clients {
		if err := w("INSERT INTO clients (id, name, is_active) VALUES (%s, %s, TRUE) ON CONFLICT (id) DO NOTHING;",
			sqlString(c.id), sqlString(c.name)); err != nil {
			return fmt.Errorf("write client %s: %w", c.id, err)
		}
	}
	for _, u := range users {
		if err := w("INSERT INTO users (id, client_id, username, email, password_hash, full_name, role, is_active) "+
			"VALUES (gen_random_uuid(), %s, %s, %s, %s, %s, %s, TRUE) ON CONFLICT (client_id, username) DO NOTHING;",
			sqlString(u.clientID), sqlString(u.username), sqlString(u.email),
			sqlString(u.passwordHash), sqlString(u.fullName), sqlString(string(u.role))); err != nil {
			return fmt.Errorf("write user %s/%s: %w", u.clientID, u.username, err)
		}
	}
	if err := w("COMMIT;"); err != nil {
		return err
	}

	log.Printf("Generated %d clients and %d users in %s", len(clients), len(users), outPath)
	return nil
}

func parseClientsSheet(f *excelize.File) ([]clientEntry, error) {
	rows, err := f.GetRows("Clients")
	if err != nil {
		return nil, err
	}

	var entries []clientEntry
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		id := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		if id == "" || name == "" {
			continue
		}
		entries = append(entries, clientEntry{id: id, name: name})
	}
	return entries, nil
}

func parseUsersSheet(f *excelize.File) ([]userEntry, error) {
	rows, err := f.GetRows("Users")
	if err != nil {
		return nil, err
	}

	var entries []userEntry
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		role := domain.UserRole(strings.TrimSpace(strings.ToLower(row[4])))
		if !domain.ValidRoles[role] {
			log.Printf("WARN: row %d: unknown role %q, skipping", i+1, row[4])
			continue
		}
		password := strings.TrimSpace(row[5])
		if password == "" {
			log.Printf("WARN: row %d: empty password, skipping", i+1)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("row %d: hash password: %w", i+1, err)
		}
		entries = append(entries, userEntry{
			clientID:     strings.TrimSpace(row[0]),
			username:     strings.TrimSpace(row[1]),
			email:        strings.TrimSpace(row[2]),
			fullName:     strings.TrimSpace(row[3]),
			role:         role,
			passwordHash: string(hash),
		})
	}
	return entries, nil
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
