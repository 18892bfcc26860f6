package shard

import "strconv"

// ParseInt parses s as a base-10 int64, mapping failures to
// ErrNotInteger.
func ParseInt(s []byte) (int64, error) {
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// ParseFloat parses s as a float64, mapping failures to ErrNotFloat.
func ParseFloat(s []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, ErrNotFloat
	}
	return f, nil
}

// FormatFloat renders f the way Redis does: integral values print
// without a decimal point, others use the shortest round-trip form.
func FormatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
