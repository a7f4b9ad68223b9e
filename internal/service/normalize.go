package service

import (
	"strings"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// genderAliases mapea variantes por locale al token canonico.
var genderAliases = map[string]string{
	"male":        domain.GenderMale,
	"m":           domain.GenderMale,
	"man":         domain.GenderMale,
	"homme":       domain.GenderMale,
	"hombre":      domain.GenderMale,
	"masculino":   domain.GenderMale,
	"female":      domain.GenderFemale,
	"f":           domain.GenderFemale,
	"woman":       domain.GenderFemale,
	"femme":       domain.GenderFemale,
	"mujer":       domain.GenderFemale,
	"femenino":    domain.GenderFemale,
	"non-binary":  domain.GenderNonBinary,
	"non_binary":  domain.GenderNonBinary,
	"nonbinary":   domain.GenderNonBinary,
	"nb":          domain.GenderNonBinary,
	"non-binaire": domain.GenderNonBinary,
	"no binario":  domain.GenderNonBinary,
}

// NormalizeGender reduce un valor de genero a su token canonico. Valores
// desconocidos se devuelven en minusculas sin espacios sobrantes.
func NormalizeGender(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := genderAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeGenders normaliza una lista de generos eliminando duplicados y
// vacios, preservando el orden de aparicion.
func NormalizeGenders(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, g := range raw {
		canonical := NormalizeGender(g)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out
}
