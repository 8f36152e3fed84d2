// Package isbn содержит нормализацию ISBN: перед сохранением и поиском
// книга идентифицируется по ISBN без дефисов и пробелов.
package isbn

import "strings"

// Normalize убирает из ISBN дефисы и пробелы.
func Normalize(raw string) string {
	replacer := strings.NewReplacer("-", "", " ", "")
	return replacer.Replace(strings.TrimSpace(raw))
}
