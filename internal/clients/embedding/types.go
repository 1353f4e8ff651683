package embedding

// Wire types for the sentence-embedding sidecar (paraphrase-MiniLM-L6-v2
// behind FastAPI). Field names follow the server's snake_case schemas.

type embedRequest struct {
	Text       []string `json:"text"`
	Preprocess bool     `json:"preprocess"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
	Model      string      `json:"model"`
}

type similarityRequest struct {
	Text1      string `json:"text1"`
	Text2      string `json:"text2"`
	Preprocess bool   `json:"preprocess"`
}

// SimilarityResult carries the raw cosine and the server-side adjusted value
// (question-asymmetry boost applied when only the first text is a question).
type SimilarityResult struct {
	Similarity         float64  `json:"similarity"`
	AdjustedSimilarity *float64 `json:"adjusted_similarity,omitempty"`
}

type DriftAnalysisRequest struct {
	Current          string    `json:"current_message"`
	Previous         string    `json:"previous_message"`
	CurrentEmbedding []float32 `json:"current_embedding"`
	BranchCentroid   []float32 `json:"branch_centroid"`
	Preprocess       bool      `json:"preprocess"`
}

// EntityOverlap describes weighted entity intersection between the current
// message and the previous one.
type EntityOverlap struct {
	HasOverlap     bool     `json:"has_overlap"`
	OverlapScore   float64  `json:"overlap_score"`
	SharedEntities []string `json:"shared_entities"`
}

// MessageSignals are the linguistic flags the NLP layer reports for a
// current/previous message pair.
type MessageSignals struct {
	CurrentIsQuestion      bool          `json:"current_is_question"`
	PreviousIsQuestion     bool          `json:"previous_is_question"`
	CurrentHasAnaphoricRef bool          `json:"current_has_anaphoric_ref"`
	HasTopicReturnSignal   bool          `json:"has_topic_return_signal"`
	EntityOverlap          EntityOverlap `json:"entity_overlap"`
}

// DriftAnalysis is the full contextual similarity verdict: the raw cosine of
// the message against the branch centroid plus linguistic boosts.
type DriftAnalysis struct {
	RawSimilarity     float64        `json:"raw_similarity"`
	BoostedSimilarity float64        `json:"boosted_similarity"`
	BoostMultiplier   float64        `json:"boost_multiplier"`
	BoostsApplied     []string       `json:"boosts_applied"`
	Analysis          MessageSignals `json:"analysis"`
}

type entityOverlapRequest struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

type analyzeMessageRequest struct {
	Text string `json:"text"`
}

// MessageAnalysis is the single-message NLP breakdown from /analyze-message.
type MessageAnalysis struct {
	IsQuestion      bool     `json:"is_question"`
	HasAnaphoricRef bool     `json:"has_anaphoric_ref"`
	HasTopicPivot   bool     `json:"has_topic_pivot"`
	Entities        []string `json:"entities"`
}

type preprocessRequest struct {
	Text []string `json:"text"`
}

type preprocessResponse struct {
	Original     []string `json:"original"`
	Preprocessed []string `json:"preprocessed"`
}

// HealthStatus mirrors the sidecar's /health payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Device    string `json:"device"`
	Dimension int    `json:"dimension"`
}
