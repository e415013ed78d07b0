package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sifriya/bookstore/internal/domain/book"
	"github.com/sifriya/bookstore/internal/observability"
)

type BooksRepo struct {
	col  *mongo.Collection
	prom *observability.Prom
}

func NewBooksRepo(database *mongo.Database, prom *observability.Prom) *BooksRepo {
	return &BooksRepo{
		col:  database.Collection("books"),
		prom: prom,
	}
}

func (r *BooksRepo) Create(ctx context.Context, req book.CreateBookRequest) (book.Book, error) {
	b := book.NewFromCreateRequest(req)

	err := r.prom.ObserveDB("books.create", func() error {
		_, err := r.col.InsertOne(ctx, b)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return book.Book{}, book.ErrISBNTaken
		}

		return book.Book{}, err
	}

	return b, nil
}

func (r *BooksRepo) List(ctx context.Context, f book.ListFilter) ([]book.Book, error) {
	filter := bson.M{}

	if f.Search != "" {
		// case-insensitive substring match, never a user-supplied pattern
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}

		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
			bson.M{"description": re},
		}
	}

	if f.Category != "" && f.Category != book.CategoryAll {
		filter["category"] = f.Category
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}

		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}

		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}

		filter["price"] = price
	}

	var sort bson.D

	switch f.Sort {
	case book.SortPriceAsc:
		sort = bson.D{{Key: "price", Value: 1}}
	case book.SortPriceDesc:
		sort = bson.D{{Key: "price", Value: -1}}
	case book.SortTitle:
		sort = bson.D{{Key: "title", Value: 1}}
	default:
		// newest first
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	var books []book.Book

	err := r.prom.ObserveDB("books.list", func() error {
		cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))

		if err != nil {
			return err
		}

		return cur.All(ctx, &books)
	})

	if err != nil {
		return nil, err
	}

	if books == nil {
		books = []book.Book{}
	}

	return books, nil
}

func (r *BooksRepo) GetByID(ctx context.Context, id string) (book.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return book.Book{}, book.ErrNotFound
	}

	var b book.Book

	err = r.prom.ObserveDB("books.get_by_id", func() error {
		return r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&b)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return book.Book{}, book.ErrNotFound
		}

		return book.Book{}, err
	}

	return b, nil
}

// GetManyByIDs returns the books that still exist; dangling favorite
// references simply produce no row.
func (r *BooksRepo) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]book.Book, error) {
	if len(ids) == 0 {
		return []book.Book{}, nil
	}

	var books []book.Book

	err := r.prom.ObserveDB("books.get_many", func() error {
		cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})

		if err != nil {
			return err
		}

		return cur.All(ctx, &books)
	})

	if err != nil {
		return nil, err
	}

	if books == nil {
		books = []book.Book{}
	}

	return books, nil
}

func (r *BooksRepo) Update(ctx context.Context, id string, req book.CreateBookRequest) (book.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return book.Book{}, book.ErrNotFound
	}

	fields := book.NewFromCreateRequest(req)

	set := bson.M{
		"title":       fields.Title,
		"author":      fields.Author,
		"description": fields.Description,
		"price":       fields.Price,
		"category":    fields.Category,
		"image":       fields.Image,
		"stock":       fields.Stock,
		"language":    fields.Language,
		"updatedAt":   time.Now().UTC(),
	}

	// optional fields are removed rather than stored empty, so the sparse
	// unique isbn index keeps working
	unset := bson.M{}

	if fields.ISBN != "" {
		set["isbn"] = fields.ISBN
	} else {
		unset["isbn"] = ""
	}

	if fields.PublishYear != nil {
		set["publishYear"] = fields.PublishYear
	} else {
		unset["publishYear"] = ""
	}

	if fields.Pages != nil {
		set["pages"] = fields.Pages
	} else {
		unset["pages"] = ""
	}

	update := bson.M{"$set": set}

	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var b book.Book

	err = r.prom.ObserveDB("books.update", func() error {
		return r.col.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&b)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return book.Book{}, book.ErrNotFound
		}

		if mongo.IsDuplicateKeyError(err) {
			return book.Book{}, book.ErrISBNTaken
		}

		return book.Book{}, err
	}

	return b, nil
}

func (r *BooksRepo) SetFavoriteCount(ctx context.Context, id string, count int) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return book.ErrNotFound
	}

	return r.prom.ObserveDB("books.set_favorite_count", func() error {
		_, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
			"$set": bson.M{"favoriteCount": count, "updatedAt": time.Now().UTC()},
		})
		return err
	})
}

func (r *BooksRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return book.ErrNotFound
	}

	return r.prom.ObserveDB("books.delete", func() error {
		res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})

		if err != nil {
			return err
		}

		if res.DeletedCount == 0 {
			return book.ErrNotFound
		}

		return nil
	})
}
