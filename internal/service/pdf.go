package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-contracts/internal/model"
)

// PDFRenderer produces the contract document and returns where it is
// stored.
type PDFRenderer interface {
	Render(ctx context.Context, c model.Contract) (string, error)
}

// URLRenderer assigns each rendering a fresh object name under BaseURL.
// The document itself is produced by the file service behind BaseURL.
type URLRenderer struct {
	BaseURL string
	NewID   func() string
}

// NewURLRenderer returns a renderer for baseURL.
func NewURLRenderer(baseURL string) *URLRenderer {
	return &URLRenderer{BaseURL: strings.TrimRight(baseURL, "/"), NewID: uuid.NewString}
}

func (r *URLRenderer) Render(ctx context.Context, c model.Contract) (string, error) {
	if c.ID == "" {
		return "", errors.New("render pdf: contract id is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/contracts/%s/%s.pdf", r.BaseURL, c.ID, r.NewID()), nil
}
