package types

// EnrichmentStage names the enrichment step that failed
type EnrichmentStage string

const (
	EnrichmentStageFetch   EnrichmentStage = "fetch_message"
	EnrichmentStagePersist EnrichmentStage = "persist_task"
	EnrichmentStageCommit  EnrichmentStage = "commit_fingerprint"
	EnrichmentStagePanic   EnrichmentStage = "panic"
	EnrichmentStageUnknown EnrichmentStage = "unknown"
)

func (s EnrichmentStage) String() string {
	return string(s)
}
