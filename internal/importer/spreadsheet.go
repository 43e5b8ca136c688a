// Package importer loads legacy spreadsheet exports (CSV) into stacks. This
// is one-time data cleaning for collections that predate the application;
// the heuristics below only have to survive one messy file format.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"github.com/mtrump/garage-library/internal/database/books"
	"github.com/mtrump/garage-library/internal/database/stacks"
	"github.com/mtrump/garage-library/internal/entities"
)

// Row is one book parsed out of the spreadsheet.
type Row struct {
	Title     string
	Author    string
	Publisher string
	Year      string
}

// Result summarizes an import run.
type Result struct {
	RowsRead      int
	BooksImported int
	Skipped       []string
}

// Parse reads CSV records into rows. Multi-column records are taken as
// title, author, publisher, year positionally; single-column records go
// through the title/author splitting heuristics. A leading header row is
// skipped.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	var rows []Row
	for i, record := range records {
		if i == 0 && isHeader(record) {
			continue
		}

		row := parseRecord(record)
		if row.Title == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(record []string) Row {
	var cells []string
	for _, cell := range record {
		cells = append(cells, strings.TrimSpace(cell))
	}

	nonEmpty := 0
	for _, cell := range cells {
		if cell != "" {
			nonEmpty++
		}
	}

	if len(cells) >= 2 && nonEmpty >= 2 {
		row := Row{Title: cells[0], Author: cells[1]}
		if len(cells) > 2 {
			row.Publisher = cells[2]
		}
		if len(cells) > 3 {
			row.Year = cells[3]
		}
		return row
	}

	if len(cells) == 0 {
		return Row{}
	}
	title, author := SplitTitleAuthor(cells[0])
	return Row{Title: title, Author: author}
}

// SplitTitleAuthor divides a combined "title, author" cell. A semicolon is
// authoritative ("Title; Author"). A single comma splits only when the
// right-hand side looks like a personal name; otherwise the comma is part
// of the title ("Slaughterhouse-Five, or The Children's Crusade").
func SplitTitleAuthor(cell string) (title, author string) {
	cell = strings.TrimSpace(cell)

	if idx := strings.Index(cell, ";"); idx >= 0 {
		return strings.TrimSpace(cell[:idx]), strings.TrimSpace(cell[idx+1:])
	}

	if strings.Count(cell, ",") == 1 {
		idx := strings.Index(cell, ",")
		left := strings.TrimSpace(cell[:idx])
		right := strings.TrimSpace(cell[idx+1:])
		if left != "" && looksLikeName(right) {
			return left, right
		}
	}

	return cell, ""
}

// looksLikeName accepts one to three words that each start with an
// uppercase letter, e.g. "Ursula K. Le Guin" fails (four words) but
// "Octavia Butler" passes. Deliberately conservative: a false negative
// leaves the author inside the title, a false positive fabricates one.
func looksLikeName(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		r := []rune(w)[0]
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "title")
}

// Service imports parsed rows into a named stack, appending in file order.
type Service struct {
	stacks *stacks.Repository
	books  *books.Repository
}

func NewService(stacksRepo *stacks.Repository, booksRepo *books.Repository) *Service {
	return &Service{
		stacks: stacksRepo,
		books:  booksRepo,
	}
}

// Import appends every row to the named stack, creating the stack when it
// does not exist yet. Rows that fail validation are skipped and reported,
// not fatal: one bad spreadsheet line should not abort the run.
func (s *Service) Import(r io.Reader, stackName string, userID uint) (*Result, error) {
	rows, err := Parse(r)
	if err != nil {
		return nil, err
	}

	// Reuse the user's stack of the same name so repeated imports append to
	// one pile instead of piling up duplicate stacks.
	stackName = strings.TrimSpace(stackName)
	stack, err := findStackByName(s.stacks, stackName, userID)
	if err != nil {
		if !errors.Is(err, stacks.ErrStackNotFound) {
			return nil, err
		}
		stack, err = s.stacks.Create(stackName, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create stack %q: %w", stackName, err)
		}
	}

	result := &Result{RowsRead: len(rows)}
	for _, row := range rows {
		fields := books.Fields{
			Title:  row.Title,
			UserID: userID,
		}
		if row.Author != "" {
			author := row.Author
			fields.Author = &author
		}
		if row.Publisher != "" {
			publisher := row.Publisher
			fields.Publisher = &publisher
		}
		if row.Year != "" {
			year := row.Year
			fields.Year = &year
		}

		if _, err := s.books.Append(stack.ID, fields); err != nil {
			log.Printf("Import: skipping %q: %v", row.Title, err)
			result.Skipped = append(result.Skipped, row.Title)
			continue
		}
		result.BooksImported++
	}
	return result, nil
}

func findStackByName(repo *stacks.Repository, name string, userID uint) (*entities.Stack, error) {
	all, err := repo.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, stacks.ErrStackNotFound
}
