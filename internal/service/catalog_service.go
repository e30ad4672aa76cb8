package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teeshop/internal/domain"
	"teeshop/internal/repository"
	"teeshop/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DesignInput holds the editable fields of a design
type DesignInput struct {
	Code          string `json:"design_code" validate:"required,max=50"`
	Name          string `json:"name" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=2000"`
	Price         string `json:"price" validate:"required,max=50,price"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0,lte=2147483647"`
}

// CatalogService manages the design catalog
type CatalogService interface {
	List(ctx context.Context) ([]*domain.Design, error)
	GetByCode(ctx context.Context, code string) (*domain.Design, error)
	Create(ctx context.Context, input DesignInput, images []storage.Upload) (*domain.Design, error)
	Update(ctx context.Context, id uuid.UUID, input DesignInput) (*domain.Design, error)
	AddImages(ctx context.Context, id uuid.UUID, images []storage.Upload) (*domain.Design, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleStock(ctx context.Context, id uuid.UUID) (*domain.Design, error)
}

type catalogService struct {
	designs repository.DesignRepository
	tx      repository.TxManager
	blobs   storage.BlobStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(designs repository.DesignRepository, tx repository.TxManager, blobs storage.BlobStore, logger *zap.Logger) CatalogService {
	return &catalogService{
		designs: designs,
		tx:      tx,
		blobs:   blobs,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *catalogService) List(ctx context.Context) ([]*domain.Design, error) {
	return s.designs.List(ctx)
}

func (s *catalogService) GetByCode(ctx context.Context, code string) (*domain.Design, error) {
	return s.designs.FindByCode(ctx, strings.TrimSpace(code))
}

// Create stores the images and then the design. At least one image is required.
func (s *catalogService) Create(ctx context.Context, input DesignInput, images []storage.Upload) (*domain.Design, error) {
	input.Code = strings.TrimSpace(input.Code)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, &ValidationError{
			Message: "validation failed",
			Fields:  map[string]string{"images": "At least one image is required"},
		}
	}
	if _, err := s.designs.FindByCode(ctx, input.Code); err == nil {
		return nil, repository.ErrDesignCodeTaken
	} else if !errors.Is(err, repository.ErrDesignNotFound) {
		return nil, err
	}

	urls, err := s.storeImages(ctx, images)
	if err != nil {
		return nil, err
	}

	now := s.now()
	design := &domain.Design{
		ID:          uuid.New(),
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Price:       strings.TrimSpace(input.Price),
		Images:      urls,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	design.SetStockQuantity(input.StockQuantity)

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.designs.Create(ctx, design)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Design created", zap.String("design_code", design.Code), zap.Int("images", len(urls)))
	return design, nil
}

// Update rewrites the design fields. Orders keep their own snapshot.
func (s *catalogService) Update(ctx context.Context, id uuid.UUID, input DesignInput) (*domain.Design, error) {
	input.Code = strings.TrimSpace(input.Code)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	design, err := s.designs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	design.Code = input.Code
	design.Name = input.Name
	design.Description = input.Description
	design.Price = strings.TrimSpace(input.Price)
	design.SetStockQuantity(input.StockQuantity)
	design.UpdatedAt = s.now()

	if err := s.designs.Update(ctx, design); err != nil {
		return nil, err
	}
	return design, nil
}

func (s *catalogService) AddImages(ctx context.Context, id uuid.UUID, images []storage.Upload) (*domain.Design, error) {
	if len(images) == 0 {
		return nil, newValidationError("no images uploaded")
	}
	design, err := s.designs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	urls, err := s.storeImages(ctx, images)
	if err != nil {
		return nil, err
	}
	if err := s.designs.AddImages(ctx, design.ID, urls); err != nil {
		return nil, err
	}

	design.Images = append(design.Images, urls...)
	return design, nil
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.designs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Design deleted", zap.String("design_id", id.String()))
	return nil
}

// ToggleStock flips the stock label. Marking a sold out design available
// gives it a single unit so the label and the counter agree.
func (s *catalogService) ToggleStock(ctx context.Context, id uuid.UUID) (*domain.Design, error) {
	var design *domain.Design
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.designs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		found, err = s.designs.FindByCodeForUpdate(ctx, found.Code)
		if err != nil {
			return err
		}

		if found.InStock() {
			found.SetStockQuantity(0)
		} else {
			found.SetStockQuantity(max(found.StockQuantity, 1))
		}
		found.UpdatedAt = s.now()

		design = found
		return s.designs.UpdateStock(ctx, found)
	})
	if err != nil {
		return nil, err
	}
	return design, nil
}

func (s *catalogService) storeImages(ctx context.Context, images []storage.Upload) ([]string, error) {
	for i, img := range images {
		if err := storage.Validate(img); err != nil {
			return nil, &ValidationError{
				Message: "invalid image",
				Fields:  map[string]string{fmt.Sprintf("images[%d]", i): err.Error()},
			}
		}
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.blobs.Store(ctx, img, storage.CategoryDesigns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
