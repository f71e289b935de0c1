package pagination

import "math"

// Normalize coerces page numbers below 1 to the first page.
func Normalize(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the number of rows to skip to reach page. Offsets that do
// not fit in an int saturate at math.MaxInt.
func Offset(page, size int) int {
	if size <= 0 {
		return 0
	}
	skipped := Normalize(page) - 1
	if skipped > math.MaxInt/size {
		return math.MaxInt
	}
	return skipped * size
}

// TotalPages returns ceil(total/size).
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
