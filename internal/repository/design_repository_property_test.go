package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"teeshop/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newTestDesign(code string, quantity int, images ...string) *domain.Design {
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &domain.Design{
		ID:          uuid.New(),
		Code:        code,
		Name:        "Design " + code,
		Description: "Screen printed cotton tee",
		Price:       "499",
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.SetStockQuantity(quantity)
	return d
}

func TestProperty_DesignCreationPreservesAttributes(t *testing.T) {
	requireDB(t)
	repo := NewDesignRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a design preserves all attributes", prop.ForAll(
		func(name string, price string, quantity int, images []string) bool {
			ctx := context.Background()

			design := newTestDesign("D-"+uuid.NewString()[:8], quantity, images...)
			design.Name = name
			design.Price = price

			if err := repo.Create(ctx, design); err != nil {
				t.Logf("FAIL: Failed to create design: %v", err)
				return false
			}

			found, err := repo.FindByCode(ctx, design.Code)
			if err != nil {
				t.Logf("FAIL: Failed to find design: %v", err)
				return false
			}

			if found.ID != design.ID || found.Name != name || found.Price != price {
				t.Logf("FAIL: identity mismatch: %+v", found)
				return false
			}
			if found.StockQuantity != quantity || found.Stock != domain.StockLabel(quantity) {
				t.Logf("FAIL: stock mismatch: %d %q", found.StockQuantity, found.Stock)
				return false
			}
			if !reflect.DeepEqual(found.Images, append([]string{}, images...)) {
				t.Logf("FAIL: images %v, want %v", found.Images, images)
				return false
			}
			return true
		},
		gen.RegexMatch(`[A-Z][a-z]{2,20}`),
		gen.RegexMatch(`[1-9][0-9]{1,3}`),
		gen.IntRange(0, 100),
		gen.SliceOfN(3, gen.RegexMatch(`/uploads/designs/[a-z]{6}\.png`)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDesignCodeIsUnique(t *testing.T) {
	requireDB(t)
	cleanTables(t)
	repo := NewDesignRepository(testDB)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestDesign("TEE-1", 3)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, newTestDesign("TEE-1", 5))
	if !errors.Is(err, ErrDesignCodeTaken) {
		t.Fatalf("Create() duplicate error = %v, want %v", err, ErrDesignCodeTaken)
	}
}

func TestAddImagesAppendsInOrder(t *testing.T) {
	requireDB(t)
	cleanTables(t)
	repo := NewDesignRepository(testDB)
	ctx := context.Background()

	design := newTestDesign("TEE-2", 1, "a.png", "b.png")
	if err := repo.Create(ctx, design); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.AddImages(ctx, design.ID, []string{"c.png"}); err != nil {
		t.Fatalf("AddImages() error = %v", err)
	}

	found, err := repo.FindByID(ctx, design.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	want := []string{"a.png", "b.png", "c.png"}
	if !reflect.DeepEqual(found.Images, want) {
		t.Fatalf("Images = %v, want %v", found.Images, want)
	}

	designs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(designs) != 1 || !reflect.DeepEqual(designs[0].Images, want) {
		t.Fatalf("List() = %+v", designs)
	}
}

func TestDeleteDesignRemovesImagesAndKeepsOrders(t *testing.T) {
	requireDB(t)
	cleanTables(t)
	designs := NewDesignRepository(testDB)
	orders := NewOrderRepository(testDB)
	ctx := context.Background()

	design := newTestDesign("TEE-3", 2, "front.png")
	if err := designs.Create(ctx, design); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	order := newTestOrder(design, "9876543210", "1")
	if err := orders.Create(ctx, order); err != nil {
		t.Fatalf("Create order error = %v", err)
	}

	if err := designs.Delete(ctx, design.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var images int
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM design_images WHERE design_id = $1`, design.ID).Scan(&images); err != nil {
		t.Fatalf("count images: %v", err)
	}
	if images != 0 {
		t.Errorf("images left after delete = %d", images)
	}

	if _, err := designs.FindByCode(ctx, design.Code); !errors.Is(err, ErrDesignNotFound) {
		t.Errorf("FindByCode() after delete error = %v", err)
	}

	kept, err := orders.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("order lost with its design: %v", err)
	}
	if kept.DesignName != design.Name {
		t.Errorf("DesignName = %q, want %q", kept.DesignName, design.Name)
	}

	if err := designs.Delete(ctx, design.ID); !errors.Is(err, ErrDesignNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, ErrDesignNotFound)
	}
}

func TestUpdateStockRejectsNegativeQuantity(t *testing.T) {
	requireDB(t)
	cleanTables(t)
	repo := NewDesignRepository(testDB)
	ctx := context.Background()

	design := newTestDesign("TEE-4", 1)
	if err := repo.Create(ctx, design); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	design.StockQuantity = -1
	if err := repo.UpdateStock(ctx, design); err == nil {
		t.Fatal("negative stock quantity was stored")
	}
}
