// Package seed 写入演示目录：作者、图书与封面。可重复执行。
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

type author struct{ name, email string }

type book struct {
	title, author, isbn string
	published           time.Time
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

var authors = []author{
	{"George Orwell", "george@orwell.com"},
	{"Harper Lee", "harper@lee.com"},
	{"F. Scott Fitzgerald", "scott@fitzgerald.com"},
	{"Jane Austen", "jane@austen.com"},
	{"Mark Twain", "mark@twain.com"},
	{"Charles Dickens", "charles@dickens.com"},
	{"Ernest Hemingway", "ernest@hemingway.com"},
	{"Agatha Christie", "agatha@christie.com"},
	{"Stephen King", "stephen@king.com"},
	{"Dan Brown", "dan@brown.com"},
}

var books = []book{
	{"1984", "George Orwell", "9780451524935", day(1949, 6, 8)},
	{"Animal Farm", "George Orwell", "9780451526342", day(1945, 8, 17)},
	{"To Kill a Mockingbird", "Harper Lee", "9780061120084", day(1960, 7, 11)},
	{"The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", day(1925, 4, 10)},
	{"Pride and Prejudice", "Jane Austen", "9780141439518", day(1813, 1, 28)},
	{"The Adventures of Tom Sawyer", "Mark Twain", "9780486400778", day(1876, 6, 1)},
	{"Great Expectations", "Charles Dickens", "9780141439563", day(1861, 8, 1)},
	{"A Tale of Two Cities", "Charles Dickens", "9780486406510", day(1859, 11, 26)},
	{"The Old Man and the Sea", "Ernest Hemingway", "9780684801223", day(1952, 9, 1)},
	{"Murder on the Orient Express", "Agatha Christie", "9780062693662", day(1934, 1, 1)},
	{"The Shining", "Stephen King", "9780307743657", day(1977, 1, 28)},
	{"It", "Stephen King", "9781501142970", day(1986, 9, 15)},
	{"The Da Vinci Code", "Dan Brown", "9780307474278", day(2003, 3, 18)},
	{"Angels & Demons", "Dan Brown", "9780671027360", day(2000, 5, 1)},
}

const coverBase = "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/"

// 按书名匹配；目录里没有的书名只记日志
var covers = map[string]string{
	"1984":                                  coverBase + "1532714506i/40961427.jpg",
	"Animal Farm":                           coverBase + "1424037542i/7613.jpg",
	"To Kill a Mockingbird":                 coverBase + "1553383690i/2657.jpg",
	"The Great Gatsby":                      coverBase + "1490528560i/4671.jpg",
	"Pride and Prejudice":                   coverBase + "1320399351i/1885.jpg",
	"The Adventures of Tom Sawyer":          coverBase + "1347652377i/24583.jpg",
	"Great Expectations":                    coverBase + "1327920219i/2623.jpg",
	"A Tale of Two Cities":                  coverBase + "1344922523i/1953.jpg",
	"The Old Man and the Sea":               coverBase + "1329189714i/2165.jpg",
	"Murder on the Orient Express":          coverBase + "1486131451i/853510.jpg",
	"The Shining":                           coverBase + "1353277730i/11588.jpg",
	"It":                                    coverBase + "1334416842i/830502.jpg",
	"The Da Vinci Code":                     coverBase + "1579621267i/968.jpg",
	"Angels & Demons":                       coverBase + "1303390735i/960.jpg",
	"Harry Potter and the Sorcerer's Stone": coverBase + "1474154022i/3.jpg",
}

type Result struct {
	AuthorsCreated int
	BooksCreated   int
	CoversUpdated  int
}

// Run 已存在的作者（按名字）和图书（按 ISBN）保持不动
func Run(ctx context.Context, repo *db.Repo, log *slog.Logger) (Result, error) {
	var res Result

	byName := make(map[string]uint, len(authors))
	for _, a := range authors {
		got, created, err := repo.FindOrCreateAuthor(ctx, a.name, a.email)
		if err != nil {
			return res, fmt.Errorf("author %q: %w", a.name, err)
		}
		byName[a.name] = got.ID
		if created {
			res.AuthorsCreated++
			log.InfoContext(ctx, "created author", "name", a.name)
		}
	}

	for _, b := range books {
		if _, err := repo.FindBookByISBN(ctx, b.isbn); err == nil {
			continue
		} else if !errors.Is(err, db.ErrNotFound) {
			return res, err
		}
		nb := &models.Book{
			Title:           b.title,
			AuthorID:        byName[b.author],
			ISBN:            b.isbn,
			PublicationDate: b.published,
		}
		if err := repo.CreateBook(ctx, nb); err != nil {
			return res, fmt.Errorf("book %q: %w", b.title, err)
		}
		res.BooksCreated++
		log.InfoContext(ctx, "created book", "title", b.title)
	}

	for title, url := range covers {
		n, err := repo.SetBookImageByTitle(ctx, title, url)
		if err != nil {
			return res, fmt.Errorf("cover %q: %w", title, err)
		}
		if n == 0 {
			log.WarnContext(ctx, "book not found for cover", "title", title)
			continue
		}
		res.CoversUpdated += int(n)
	}
	return res, nil
}
