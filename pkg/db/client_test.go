package db

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return &Client{conn: conn}
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDBRoundTrip(t *testing.T) {
	client := newTestClient(t)

	if err := client.DB().Create(&testModel{Name: "strawberry"}).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var got testModel
	if err := client.DB().First(&got, "name = ?", "strawberry").Error; err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID == 0 {
		t.Fatal("expected an assigned primary key")
	}
}

func TestSQLDB(t *testing.T) {
	client := newTestClient(t)

	sqlDB, err := client.SQLDB()
	if err != nil {
		t.Fatalf("unexpected SQLDB error: %v", err)
	}
	if sqlDB == nil {
		t.Fatal("expected a non-nil sql.DB handle")
	}
}
