package records

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewCatalog_DefaultsAndLookup(t *testing.T) {
	catalog, err := NewCatalog(DefaultResources()...)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	orders, err := catalog.Get("orders")
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if orders.DateField != "createdAt" || orders.ValueField != "amount" {
		t.Fatalf("unexpected orders resource %+v", orders)
	}
	names := catalog.Names()
	if len(names) != 7 || names[0] != "consultants" || names[6] != "withdrawals" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, err := catalog.Get("payouts"); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	if _, err := NewCatalog(Resource{DateField: "createdAt"}); !errors.Is(err, ErrEmptyResourceName) {
		t.Fatalf("expected ErrEmptyResourceName, got %v", err)
	}
	if _, err := NewCatalog(Resource{Name: "orders"}); !errors.Is(err, ErrEmptyDateField) {
		t.Fatalf("expected ErrEmptyDateField, got %v", err)
	}
	dup := Resource{Name: "orders", DateField: "createdAt"}
	if _, err := NewCatalog(dup, dup); !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource, got %v", err)
	}

	catalog, err := NewCatalog(Resource{Name: "tickets", DateField: "openedAt"})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	res, _ := catalog.Get("tickets")
	if res.Path != "/tickets" {
		t.Fatalf("expected default path, got %q", res.Path)
	}
}

func TestDecodeRecord_KeepsNumbers(t *testing.T) {
	record, err := DecodeRecord([]byte(`{"id": 12, "amount": 10.50, "createdAt": "2024-01-10"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := record["amount"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", record["amount"])
	}
	if record.ID() != "12" {
		t.Fatalf("expected id 12, got %q", record.ID())
	}

	if _, err := DecodeRecord([]byte(`null`)); !errors.Is(err, ErrNilRecord) {
		t.Fatalf("expected ErrNilRecord, got %v", err)
	}
	if _, err := DecodeRecord([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array payload")
	}
}

func TestRecordID_Fallbacks(t *testing.T) {
	if got := (Record{"_id": "abc"}).ID(); got != "abc" {
		t.Fatalf("expected _id fallback, got %q", got)
	}
	if got := (Record{"name": "x"}).ID(); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
