package book

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrISBNTaken = errors.New("isbn already taken")
)

const (
	DefaultImage    = "https://images.unsplash.com/photo-1543002588-bfa74002ed7e?w=400"
	DefaultLanguage = "עברית"

	// CategoryAll is the sentinel that bypasses the category filter.
	CategoryAll = "הכל"
)

// Categories is the fixed catalog taxonomy.
var Categories = []string{"ספרות", "מדע", "היסטוריה", "ילדים", "פנטזיה", "ביוגרפיה", "עסקים", "אחר"}

func IsValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	Category      string             `bson:"category" json:"category"`
	Image         string             `bson:"image" json:"image"`
	Stock         int                `bson:"stock" json:"stock"`
	ISBN          string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	PublishYear   *int               `bson:"publishYear,omitempty" json:"publishYear,omitempty"`
	Language      string             `bson:"language" json:"language"`
	Pages         *int               `bson:"pages,omitempty" json:"pages,omitempty"`
	FavoriteCount int                `bson:"favoriteCount" json:"favoriteCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Sort keys accepted by the listing endpoint.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortTitle     = "title"
	SortNewest    = "newest"
)

// ListFilter carries the optional listing filters; pointer fields are absent
// when nil.
type ListFilter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
}

// Price and Stock are pointers so that a legitimate zero survives the
// required binding check.
type CreateBookRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Author      string   `json:"author" binding:"required,min=2,max=100"`
	Description string   `json:"description" binding:"required,min=10,max=2000"`
	Price       *float64 `json:"price" binding:"required,min=0,max=10000"`
	Category    string   `json:"category" binding:"required,oneof=ספרות מדע היסטוריה ילדים פנטזיה ביוגרפיה עסקים אחר"`
	Image       string   `json:"image" binding:"omitempty,uri"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
	ISBN        string   `json:"isbn" binding:"omitempty"`
	PublishYear *int     `json:"publishYear" binding:"omitempty"`
	Language    string   `json:"language" binding:"omitempty,max=50"`
	Pages       *int     `json:"pages" binding:"omitempty,min=1"`
}

// Validate covers the bounds the binding tags cannot express.
func (r CreateBookRequest) Validate() error {
	if r.PublishYear != nil {
		maxYear := time.Now().Year() + 1
		if *r.PublishYear < 1000 || *r.PublishYear > maxYear {
			return errors.New("שנת ההוצאה אינה תקינה")
		}
	}

	return nil
}

func NewFromCreateRequest(req CreateBookRequest) Book {
	now := time.Now().UTC()

	b := Book{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       *req.Stock,
		ISBN:        strings.TrimSpace(req.ISBN),
		PublishYear: req.PublishYear,
		Language:    req.Language,
		Pages:       req.Pages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if b.Image == "" {
		b.Image = DefaultImage
	}

	if b.Language == "" {
		b.Language = DefaultLanguage
	}

	return b
}
