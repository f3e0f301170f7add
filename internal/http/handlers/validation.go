package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 120

type ProductValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// validateProduct checks a catalog product before it is stored. Title and Image
// end up inside shopper carts, so they are held to what a cart can display.
func validateProduct(p ProductRequest) []ProductValidationError {
	errs := []ProductValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ProductValidationError{Field: "Name", Description: "Name is required"})
	}
	if utf8.RuneCountInString(p.Title) > maxTitleLength {
		errs = append(errs, ProductValidationError{
			Field:       "Title",
			Description: fmt.Sprintf("Title cannot be longer than %d characters", maxTitleLength),
		})
	}
	if p.Image != "" && !isWebURL(p.Image) {
		errs = append(errs, ProductValidationError{Field: "Image", Description: "Image must be an http or https URL"})
	}
	if p.Price <= 0 {
		errs = append(errs, ProductValidationError{Field: "Price", Description: "Price must be greater than zero"})
	}
	if p.Quantity < 0 {
		errs = append(errs, ProductValidationError{Field: "Quantity", Description: "Quantity cannot be negative"})
	}
	return errs
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
