package rowsource

// CountRows streams the source once and returns the number of data rows,
// excluding the header line when the source has one. Content is never
// retained beyond the current row. An empty source counts as zero rows
// without error.
func CountRows(src Source) (int64, error) {
	rows, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		total++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if src.Header() && total > 0 {
		total--
	}
	return total, nil
}
