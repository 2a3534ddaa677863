package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateAuthor(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a, created, err := r.FindOrCreateAuthor(ctx, "Harper Lee", "harper@lee.com")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := r.FindOrCreateAuthor(ctx, "Harper Lee", "other@lee.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, "harper@lee.com", again.Email)
}

func TestCreateBook(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := mustBook(t, r, "1984", "9780451524935")
	assert.True(t, b.Available)

	byISBN, err := r.FindBookByISBN(ctx, "9780451524935")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byISBN.ID)
	require.NotNil(t, byISBN.Author)
	assert.Equal(t, "George Orwell", byISBN.Author.Name)

	dup := &models.Book{Title: "Copy", AuthorID: b.AuthorID, ISBN: "9780451524935", PublicationDate: time.Now()}
	require.ErrorIs(t, r.CreateBook(ctx, dup), ErrConflict)

	orphan := &models.Book{Title: "Orphan", AuthorID: 999, ISBN: "1", PublicationDate: time.Now()}
	require.ErrorIs(t, r.CreateBook(ctx, orphan), ErrNotFound)

	_, err = r.FindBookByISBN(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListBooksFilters(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b1 := mustBook(t, r, "1984", "9780451524935")
	mustBook(t, r, "Animal Farm", "9780451526342")

	lee, _, err := r.FindOrCreateAuthor(ctx, "Harper Lee", "")
	require.NoError(t, err)
	require.NoError(t, r.CreateBook(ctx, &models.Book{
		Title: "To Kill a Mockingbird", AuthorID: lee.ID, ISBN: "9780061120084",
		PublicationDate: time.Date(1960, 7, 11, 0, 0, 0, 0, time.UTC),
	}))

	u := mustUser(t, r, "alice")
	_, err = r.BorrowBook(ctx, u.ID, b1.ID)
	require.NoError(t, err)

	all, err := r.ListBooks(ctx, BooksQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	no := false
	borrowed, err := r.ListBooks(ctx, BooksQuery{Available: &no})
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, b1.ID, borrowed[0].ID)

	byLee, err := r.ListBooks(ctx, BooksQuery{AuthorID: lee.ID})
	require.NoError(t, err)
	require.Len(t, byLee, 1)
	assert.Equal(t, "To Kill a Mockingbird", byLee[0].Title)

	search, err := r.ListBooks(ctx, BooksQuery{Q: "animal"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	byISBN, err := r.ListBooks(ctx, BooksQuery{Q: "0061120084"})
	require.NoError(t, err)
	require.Len(t, byISBN, 1)
}

func TestSetBookImage(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := mustBook(t, r, "1984", "9780451524935")

	require.NoError(t, r.SetBookImage(ctx, b.ID, "https://img.example/1984.jpg"))
	got := reloadBook(t, r, b.ID)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "https://img.example/1984.jpg", *got.ImageURL)

	require.NoError(t, r.SetBookImage(ctx, b.ID, " "))
	assert.Nil(t, reloadBook(t, r, b.ID).ImageURL)

	require.ErrorIs(t, r.SetBookImage(ctx, 999, "x"), ErrNotFound)

	n, err := r.SetBookImageByTitle(ctx, "1984", "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = r.SetBookImageByTitle(ctx, "Unknown", "https://img.example/b.jpg")
	require.NoError(t, err)
	assert.Zero(t, n)
}
