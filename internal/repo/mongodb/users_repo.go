package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/observability"
)

// excludePassword mirrors mongoose's `.select('-password')`.
var excludePassword = bson.M{"password": 0}

type UsersRepo struct {
	col  *mongo.Collection
	prom *observability.Prom
}

func NewUsersRepo(database *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		col:  database.Collection("users"),
		prom: prom,
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.col.InsertOne(ctx, u)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// GetByEmail returns the full document including the password hash; it is
// only used by the login flow.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return r.col.FindOne(ctx, bson.M{"email": user.NormalizeEmail(email)}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err = r.prom.ObserveDB("users.get_by_id", func() error {
		return r.col.FindOne(
			ctx,
			bson.M{"_id": oid},
			options.FindOne().SetProjection(excludePassword),
		).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var users []user.User

	err := r.prom.ObserveDB("users.list", func() error {
		cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetProjection(excludePassword))

		if err != nil {
			return err
		}

		return cur.All(ctx, &users)
	})

	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []user.User{}
	}

	return users, nil
}

func (r *UsersRepo) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.ErrNotFound
	}

	return r.prom.ObserveDB("users.set_last_login", func() error {
		_, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
			"$set": bson.M{"lastLogin": t, "updatedAt": time.Now().UTC()},
		})
		return err
	})
}

func (r *UsersRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err = r.prom.ObserveDB("users.set_admin", func() error {
		return r.col.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"isAdmin": isAdmin, "updatedAt": time.Now().UTC()}},
			options.FindOneAndUpdate().
				SetReturnDocument(options.After).
				SetProjection(excludePassword),
		).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) SetFavorites(ctx context.Context, id string, favorites []primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.ErrNotFound
	}

	return r.prom.ObserveDB("users.set_favorites", func() error {
		res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
			"$set": bson.M{"favorites": favorites, "updatedAt": time.Now().UTC()},
		})

		if err != nil {
			return err
		}

		if res.MatchedCount == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.ErrNotFound
	}

	return r.prom.ObserveDB("users.delete", func() error {
		res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})

		if err != nil {
			return err
		}

		// deleting a user does not cascade into books or favoriteCount
		if res.DeletedCount == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}
