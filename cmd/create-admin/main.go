package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/database"
	"github.com/apexlabs/ntamock-backend/internal/logger"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/store"
	"github.com/apexlabs/ntamock-backend/internal/validator"
)

func main() {
	reset := flag.Bool("reset", false, "Replace the password of an existing admin")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminRepo := repository.NewAdminRepository(pool)
	studentRepo := repository.NewStudentRepository(pool, store.Nop{})
	authService := service.NewAuthService(cfg, studentRepo, adminRepo, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	if *reset {
		fmt.Println("=== Reset Admin Password ===")
	} else {
		fmt.Println("=== Create New Admin ===")
	}

	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	password, err := readPassword("Password: ")
	if err != nil {
		fail("reading password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fail("reading password: %v", err)
	}
	if password != confirm {
		fail("passwords do not match")
	}

	req := model.AdminLoginRequest{Username: username, Password: password}
	if fields := validator.Struct(&req); fields != nil {
		for field, msg := range fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
		}
		os.Exit(1)
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if *reset {
		if err := adminRepo.UpdatePassword(ctx, username, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				fail("admin %q does not exist", username)
			}
			log.Fatal().Err(err).Msg("Failed to update password")
		}
		fmt.Printf("\nPassword for '%s' replaced.\n", username)
		return
	}

	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			fail("admin %q already exists, use -reset to change the password", username)
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nAdmin '%s' created with ID: %d\n", admin.Username, admin.ID)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b), err
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
