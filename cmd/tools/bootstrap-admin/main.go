// bootstrap-admin provisions the first account directly against the database,
// for fresh deployments where no user exists yet to register others against.
// The password is prompted without echo.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sidverma/vidtube/internal/server/config"
	"github.com/sidverma/vidtube/internal/server/models"
	"github.com/sidverma/vidtube/internal/server/repositories/repomanager"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("db migration error: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	username, err := prompt(reader, "Username")
	if err != nil {
		log.Fatal(err)
	}
	email, err := prompt(reader, "Email")
	if err != nil {
		log.Fatal(err)
	}
	fullname, err := prompt(reader, "Full name")
	if err != nil {
		log.Fatal(err)
	}
	avatarURL, err := prompt(reader, "Avatar URL")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal(err)
	}
	if len(password) == 0 {
		log.Fatal("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword(password, 8)
	if err != nil {
		log.Fatalf("could not hash password: %v", err)
	}

	user, err := rm.Users(db).Create(ctx, &models.User{
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(email),
		Fullname:     fullname,
		PasswordHash: string(hash),
		AvatarURL:    avatarURL,
	})
	if err != nil {
		log.Fatalf("could not create user: %v", err)
	}

	fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Println(label)
	value, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", strings.ToLower(label))
	}
	return value, nil
}
