package service

// FormatHealthScore форматирует балл 0..100 как "N%" с округлением половин вверх
func FormatHealthScore(score float64) string {
	return formatRounded(score) + "%"
}

// FormatPercentage форматирует долю 0..1 как "N%" (0.2 -> "20%")
func FormatPercentage(value float64) string {
	return formatRounded(value*100) + "%"
}
