package httpserver

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/shopapi/internal/domain"
)

// exportProducts streams the whole catalog as an xlsx workbook. Staff only.
func (s *Server) exportProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !s.caller(r).Staff {
		respondError(w, domain.ErrPermissionDenied)
		return
	}

	items, err := s.catalog.ListProducts(r.Context(), domain.ProductFilter{})
	if err != nil {
		respondError(w, err)
		return
	}

	f := excelize.NewFile()
	const sheet = "Products"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "Slug", "Brand", "Category", "Description", "Price", "Rating", "InStock", "ImageURL", "CreatedAt"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, p := range items {
		brand, category := "", ""
		if p.Brand != nil {
			brand = p.Brand.Name
		}
		if p.Category != nil {
			category = p.Category.Name
		}
		values := []any{
			p.Name, p.Slug, brand, category, p.Description,
			p.Price.InexactFloat64(), p.Rating.InexactFloat64(), p.InStock,
			p.ImageURL, p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("xlsx export write failed")
	}
}
