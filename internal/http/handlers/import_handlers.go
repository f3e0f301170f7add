package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	models "github.com/rogerio-castellano/cart-store/internal/models"
)

type csvRow struct {
	Name   string
	Title  string
	Price  float64
	Image  string
	Amount int
}

var requiredColumns = []string{"name", "price", "amount"}

func parseCSV(in io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header")
	}

	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %v", err)
		}

		rows = append(rows, csvRow{
			Name:   field(record, "name"),
			Title:  field(record, "title"),
			Price:  parseFloat(field(record, "price")),
			Image:  field(record, "image"),
			Amount: parseInt(field(record, "amount")),
		})
	}
	return rows, nil
}

func validateRow(r csvRow) error {
	if r.Name == "" {
		return errors.New("missing name")
	}
	if r.Price <= 0 {
		return errors.New("invalid price")
	}
	if r.Amount < 0 {
		return errors.New("invalid amount")
	}
	return nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// parseInt maps unparsable input to -1 so validateRow rejects it.
func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}

func nowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// ImportCSV loads products from CSV into the inventory repository. Rows naming
// an existing product are skipped unless update is set, in which case they
// overwrite it. Invalid rows are reported and do not stop the import.
func ImportCSV(in io.Reader, update bool) (ImportProductsResult, error) {
	records, err := parseCSV(in)
	if err != nil {
		return ImportProductsResult{}, err
	}

	result := ImportProductsResult{Errors: []ProductValidationError{}}
	rowError := func(row int, format string, args ...any) {
		result.Errors = append(result.Errors, ProductValidationError{
			Description: fmt.Sprintf("row %d: ", row) + fmt.Sprintf(format, args...),
		})
	}

	for i, rec := range records {
		rowNum := i + 2 // header is row 1

		if err := validateRow(rec); err != nil {
			rowError(rowNum, "%v", err)
			continue
		}

		existing, err := inventoryRepo.GetByName(rec.Name)
		if err == nil && existing.ID != 0 {
			if !update {
				rowError(rowNum, "product '%s' already exists", rec.Name)
				continue
			}
			existing.Title = rec.Title
			existing.Price = rec.Price
			existing.Image = rec.Image
			existing.Quantity = rec.Amount
			existing.UpdatedAt = nowRFC3339()
			if _, err := inventoryRepo.Update(existing); err != nil {
				rowError(rowNum, "failed to update '%s'", rec.Name)
				continue
			}
			result.ImportedProductsCount++
			continue
		}

		now := nowRFC3339()
		if _, err := inventoryRepo.Create(models.InventoryItem{
			Name:      rec.Name,
			Title:     rec.Title,
			Price:     rec.Price,
			Image:     rec.Image,
			Quantity:  rec.Amount,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			rowError(rowNum, "%v", err)
			continue
		}
		result.ImportedProductsCount++
	}
	return result, nil
}

// ImportProductsHandler godoc
// @Summary Import products via CSV
// @Description Columns: name, title, price, image, amount
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param mode query string false "Import mode (skip|update)"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {string} string "Invalid file"
// @Failure 500 {string} string "Internal error"
// @Router /products/import [post]
func ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	update := strings.ToLower(r.URL.Query().Get("mode")) == "update"

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := ImportCSV(file, update)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := writeJSON(w, http.StatusOK, result); err != nil {
		http.Error(w, "", http.StatusInternalServerError)
	}
}
