package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CompanyService manages the companies that trade documents.
type CompanyService interface {
	RegisterCompany(ctx context.Context, name string, kind CompanyKind) (*Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	// SetCompanyLogo stores a previously uploaded image reference on the actor's company.
	SetCompanyLogo(ctx context.Context, actor Actor, ref string) (*Company, error)
}

type companyService struct {
	store Store
}

func NewCompanyService(store Store) CompanyService {
	return &companyService{store: store}
}

func (s *companyService) RegisterCompany(ctx context.Context, name string, kind CompanyKind) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("register company", "name", "company name is required")
	}
	if len(name) > 200 {
		return nil, validationError("register company", "name", "company name must be at most 200 characters")
	}
	if !kind.IsValid() {
		return nil, validationError("register company", "kind", "kind must be BUYER or SELLER")
	}
	c := &Company{ID: uuid.New(), Name: name, Kind: kind, CreatedAt: time.Now().UTC()}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertCompany(ctx, c); err != nil {
			return fmt.Errorf("insert company %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *companyService) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	var c *Company
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		c, err = tx.GetCompany(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *companyService) ListCompanies(ctx context.Context) ([]Company, error) {
	var out []Company
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListCompanies(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *companyService) SetCompanyLogo(ctx context.Context, actor Actor, ref string) (*Company, error) {
	if ref == "" {
		return nil, validationError("set company logo", "logo_ref", "logo reference is required")
	}
	var c *Company
	err := s.store.WithTx(ctx, func(tx Tx) error {
		company, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if err := tx.SetCompanyLogo(ctx, company.ID, ref); err != nil {
			return fmt.Errorf("set logo of %s: %w", company.Name, err)
		}
		company.LogoRef = ref
		c = company
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
