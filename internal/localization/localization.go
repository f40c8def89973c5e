// Package localization — поиск строк по таблицам переводов.
// Таблица передается явно, без процессных синглтонов: перевод — это
// чистая функция (ключ, таблица) -> строка.
package localization

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table — дерево переводов одной локали, загруженное из YAML.
type Table map[string]any

// Load читает таблицу локали из dir/<lang>.yml. Если файл запрошенной
// локали отсутствует, происходит откат на en; если нет и его —
// возвращается пустая таблица (все ключи будут возвращаться как есть).
func Load(dir, lang string) (Table, error) {
	data, err := os.ReadFile(filepath.Join(dir, lang+".yml"))
	if err != nil {
		if lang != "en" {
			return Load(dir, "en")
		}
		return Table{}, fmt.Errorf("ошибка чтения файла локали: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("ошибка разбора файла локали %s: %w", lang, err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

// T возвращает перевод по ключу с точечной нотацией
// (например "ui.choose_genre"). Отсутствующий ключ возвращается как есть:
// видимый в интерфейсе сырой ключ — лучший сигнал о дыре в переводах.
func (t Table) T(key string) string {
	var current any = map[string]any(t)
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return key
		}
		current, ok = node[part]
		if !ok {
			return key
		}
	}
	if s, ok := current.(string); ok {
		return s
	}
	return key
}

// TF возвращает перевод с подстановкой плейсхолдеров вида {name}.
func (t Table) TF(key string, args map[string]string) string {
	s := t.T(key)
	for name, value := range args {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}
