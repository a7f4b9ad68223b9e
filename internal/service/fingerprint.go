package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// ProfileFingerprint calcula un digest estable de los campos del perfil
// relevantes para compatibilidad: bio, intereses (ordenados), orientacion,
// genero, edad y atributos inferidos por el LLM. Campos volatiles (fotos,
// ubicacion, last_active) quedan fuera a proposito para que ediciones ajenas
// al matching no invaliden la cache.
func ProfileFingerprint(p domain.Profile) string {
	return fingerprintAt(p, time.Now().UTC())
}

func fingerprintAt(p domain.Profile, now time.Time) string {
	interests := append([]string(nil), p.Interests...)
	sort.Strings(interests)

	attrKeys := sortedKeys(p.AIAttributes)

	var sb strings.Builder
	sb.WriteString("bio=")
	sb.WriteString(p.Bio)
	sb.WriteString("\ninterests=")
	sb.WriteString(strings.Join(interests, ","))
	sb.WriteString("\norientation=")
	sb.WriteString(p.SexualOrientation)
	sb.WriteString("\ngender=")
	sb.WriteString(p.Gender)
	sb.WriteString("\nage=")
	fmt.Fprintf(&sb, "%d", p.Age(now))
	for _, k := range attrKeys {
		fmt.Fprintf(&sb, "\nai.%s=%s", k, p.AIAttributes[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
