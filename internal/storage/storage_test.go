package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molink/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "nested", "molink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "molink.db")
	db, err := Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open("", path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db driver")
}

func TestPageStore_CRUD(t *testing.T) {
	s := NewPageStore(openTestDB(t))

	first := &domain.Page{Title: "First"}
	second := &domain.Page{Title: "Second", Cover: "cover.png"}
	require.NoError(t, s.CreatePage(first))
	require.NoError(t, s.CreatePage(second))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)

	got, err := s.GetPage(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, "cover.png", got.Cover)
	assert.False(t, got.CreatedAt.IsZero())

	got.Title = "Renamed"
	got.LinkedFile = "/tmp/notes.md"
	require.NoError(t, s.UpdatePage(got))

	pages, err := s.ListPages()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "First", pages[0].Title)
	assert.Equal(t, "Renamed", pages[1].Title)
	assert.Equal(t, "/tmp/notes.md", pages[1].LinkedFile)

	require.NoError(t, s.DeletePage(first.ID))
	_, err = s.GetPage(first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_MissingPage(t *testing.T) {
	s := NewPageStore(openTestDB(t))

	_, err := s.GetPage("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePage(&domain.Page{ID: "nope"}), domain.ErrNotFound)
	assert.ErrorIs(t, s.DeletePage("nope"), domain.ErrNotFound)
	_, err = s.LoadDocument("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.SaveDocument(&domain.Document{Page: domain.Page{ID: "nope"}}), domain.ErrNotFound)
}

func TestPageStore_DocumentRoundTrip(t *testing.T) {
	s := NewPageStore(openTestDB(t))
	page := &domain.Page{Title: "Doc"}
	require.NoError(t, s.CreatePage(page))

	todo := domain.NewBlock(domain.KindTodo, "done")
	todo.Checked = true
	doc := &domain.Document{
		Page: *page,
		Blocks: []*domain.Block{
			domain.NewBlock(domain.KindHeading1, "Title"),
			domain.NewContainer(domain.KindBulletedList,
				domain.NewBlock(domain.KindBulletedList, "one"),
				domain.NewContainer(domain.KindNumberedList,
					domain.NewBlock(domain.KindNumberedList, "nested"),
				),
				todo,
			),
			domain.NewBlock(domain.KindParagraph, ""),
		},
	}
	require.NoError(t, s.SaveDocument(doc))

	loaded, err := s.LoadDocument(page.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doc", loaded.Page.Title)
	assert.Equal(t, doc.Blocks, loaded.Blocks)
}

func TestPageStore_SaveReplacesBlocks(t *testing.T) {
	s := NewPageStore(openTestDB(t))
	page := &domain.Page{Title: "Doc"}
	require.NoError(t, s.CreatePage(page))

	doc := domain.NewDocument(*page)
	doc.Blocks = []*domain.Block{
		domain.NewBlock(domain.KindParagraph, "A"),
		domain.NewBlock(domain.KindParagraph, "B"),
	}
	require.NoError(t, s.SaveDocument(doc))

	doc.Blocks = []*domain.Block{doc.Blocks[1], doc.Blocks[0]}
	require.NoError(t, s.SaveDocument(doc))

	loaded, err := s.LoadDocument(page.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Blocks, 2)
	assert.Equal(t, "B", loaded.Blocks[0].Text())
	assert.Equal(t, "A", loaded.Blocks[1].Text())
	assert.Equal(t, doc.Blocks[0].ID, loaded.Blocks[0].ID)
}

func TestPageStore_EmptyPageLoadsParagraph(t *testing.T) {
	s := NewPageStore(openTestDB(t))
	page := &domain.Page{Title: "Empty"}
	require.NoError(t, s.CreatePage(page))

	doc, err := s.LoadDocument(page.ID)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, domain.KindParagraph, doc.Blocks[0].Kind)
}

func TestPageStore_DeleteRemovesBlocks(t *testing.T) {
	db := openTestDB(t)
	s := NewPageStore(db)
	page := &domain.Page{Title: "Gone"}
	require.NoError(t, s.CreatePage(page))
	require.NoError(t, s.SaveDocument(domain.NewDocument(*page)))

	require.NoError(t, s.DeletePage(page.ID))

	var n int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM blocks WHERE page_id = ?`, page.ID).Scan(&n))
	assert.Zero(t, n)
}

func TestDollarPlaceholders(t *testing.T) {
	got := dollarPlaceholders(`UPDATE pages SET title = ?, cover = ? WHERE id = ?`)
	assert.Equal(t, `UPDATE pages SET title = $1, cover = $2 WHERE id = $3`, got)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("user:pw@tcp(localhost:3306)/molink")
	require.NoError(t, err)
	assert.True(t, strings.Contains(dsn, "parseTime=true"), dsn)
	assert.True(t, strings.Contains(dsn, "clientFoundRows=true"), dsn)
	assert.True(t, strings.Contains(dsn, "charset=utf8mb4"), dsn)

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}

func TestSchemaPerDialect(t *testing.T) {
	for _, name := range Drivers {
		d, err := dialectFor(name)
		require.NoError(t, err, name)
		assert.Len(t, d.schema, 3, name)
	}
	my, _ := dialectFor("mysql")
	assert.Contains(t, my.schema[0], "VARCHAR(64) PRIMARY KEY")
	assert.NotContains(t, my.schema[2], "IF NOT EXISTS")
}
