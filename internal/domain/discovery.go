package domain

// DiscoveryCandidate es un perfil candidato con sus datos calculados para la
// respuesta de discovery. No se persiste.
type DiscoveryCandidate struct {
	Profile             Profile              `json:"profile"`
	Scores              *CompatibilityScores `json:"scores,omitempty"`
	EmbeddingSimilarity *float64             `json:"embedding_similarity,omitempty"`
	DistanceKm          *float64             `json:"distance_km,omitempty"`
	IsLiked             bool                 `json:"is_liked"`
	PhotoURLs           []string             `json:"photo_urls,omitempty"`
}

// DiscoveryResult agrupa los candidatos y señala si los scores de
// compatibilidad estan disponibles (false mientras falte el embedding del
// solicitante).
type DiscoveryResult struct {
	Candidates         []DiscoveryCandidate `json:"candidates"`
	CompatibilityReady bool                 `json:"compatibility_ready"`
}
