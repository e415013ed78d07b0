package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sifriya/bookstore/internal/config"
	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/security"
)

func EnsureAdminUser(ctx context.Context, database *mongo.Database, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists

	err := database.Collection("users").FindOne(ctx, bson.M{"email": email}).Err()

	if err == nil {
		return nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.NewFromRegisterRequest(user.RegisterRequest{
		Name:     cfg.AdminName,
		Email:    email,
		Password: "",
	}, hash)
	u.IsAdmin = true

	_, err = database.Collection("users").InsertOne(ctx, u)

	return err
}
