package utils

import (
	"errors"
	"math"
	"strconv"
)

// MaxPage caps page numbers so offsets stay far from overflow.
const MaxPage = 1_000_000

// ParsePage reads a 1-based page number, falling back to 1 on junk input
// and capping at MaxPage.
func ParsePage(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return MaxPage
	}
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxPage {
		return MaxPage
	}
	return n
}

// Offset saturates at math.MaxInt instead of wrapping negative.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// LastPage never reports fewer than one page, matching an empty first page.
func LastPage(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
