package common

const (
	ComponentScanner    = "scanner"
	ComponentLogFetcher = "log-fetcher"
	ComponentWatermark  = "watermark"
	ComponentWindow     = "window"
	ComponentEvents     = "events"
	ComponentBlockInfo  = "block-info"
	ComponentRPC        = "rpc"
	ComponentStore      = "store"
	ComponentMaintenance = "maintenance"
	ComponentMetrics    = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentScanner:     {},
	ComponentLogFetcher:  {},
	ComponentWatermark:   {},
	ComponentWindow:      {},
	ComponentEvents:      {},
	ComponentBlockInfo:   {},
	ComponentRPC:         {},
	ComponentStore:       {},
	ComponentMaintenance: {},
	ComponentMetrics:     {},
}
