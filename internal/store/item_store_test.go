package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"rentshop/internal/models"
)

func TestItemStoreCreateArgs(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	tx := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	s := NewItemStore(stubDB{})
	owner := "acc-1"
	now := time.Now()
	err := s.Create(context.Background(), tx, ItemInput{
		ID:             "item-1",
		Title:          "Mug",
		Price:          1200,
		Quantity:       1,
		Status:         models.ItemReserved,
		OwnerID:        &owner,
		ReservedAt:     &now,
		LastPaidAmount: 1200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "INSERT INTO catalog_items") {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if len(gotArgs) != 10 || gotArgs[0] != "item-1" || gotArgs[6] != models.ItemReserved {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestItemStoreGetForUpdateLocksRow(t *testing.T) {
	var gotQuery string
	tx := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			gotQuery = query
			row := dest.(*models.CatalogItem)
			row.ID = args[0].(string)
			row.Status = models.ItemAvailable
			return nil
		},
	}
	s := NewItemStore(stubDB{})
	item, err := s.GetForUpdate(context.Background(), tx, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "FOR UPDATE") {
		t.Fatalf("expected a row lock, got: %s", gotQuery)
	}
	if item.Status != models.ItemAvailable {
		t.Fatalf("unexpected item: %#v", item)
	}
}

func TestItemStoreUpdateReservationClearsOwner(t *testing.T) {
	var gotArgs []any
	tx := stubExecer{
		execFn: func(_ context.Context, _ string, args ...any) (sql.Result, error) {
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	s := NewItemStore(stubDB{})
	err := s.UpdateReservation(context.Background(), tx, "item-1", models.ItemAvailable, nil, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotArgs) != 5 || gotArgs[0] != models.ItemAvailable || gotArgs[4] != "item-1" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if gotArgs[1] != (*string)(nil) {
		t.Fatalf("expected nil owner, got %v", gotArgs[1])
	}
}

func TestItemStoreListAvailableOnly(t *testing.T) {
	var gotQuery string
	db := stubDB{
		selectFn: func(_ context.Context, _ any, query string, _ ...any) error {
			gotQuery = query
			return nil
		},
	}
	s := NewItemStore(db)
	if _, err := s.List(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "status = 'available'") {
		t.Fatalf("expected availability filter, got: %s", gotQuery)
	}
}

func TestItemStoreListAllSkipsFilter(t *testing.T) {
	var gotQuery string
	db := stubDB{
		selectFn: func(_ context.Context, _ any, query string, _ ...any) error {
			gotQuery = query
			return nil
		},
	}
	s := NewItemStore(db)
	if _, err := s.List(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(gotQuery, "WHERE") {
		t.Fatalf("expected unfiltered query, got: %s", gotQuery)
	}
}

func TestItemStoreReleaseByOwner(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	tx := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 2}, nil
		},
	}
	s := NewItemStore(stubDB{})
	if err := s.ReleaseByOwner(context.Background(), tx, "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "owner_id = NULL") || !strings.Contains(gotQuery, "status = 'available'") {
		t.Fatalf("expected owner and status reset, got: %s", gotQuery)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "acc-1" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestItemStoreDeleteReportsRows(t *testing.T) {
	tx := stubExecer{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 1}, nil
		},
	}
	s := NewItemStore(stubDB{})
	affected, err := s.Delete(context.Background(), tx, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row, got %d", affected)
	}
}
