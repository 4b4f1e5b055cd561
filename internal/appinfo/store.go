// Package appinfo holds process-wide counters surfaced by the admin stats
// endpoint and the CLI.
package appinfo

import (
	"sync/atomic"
	"time"
)

var StartTime = time.Now()

var (
	TotalAssetsCount  atomic.Int64
	TotalAssetsSize   atomic.Int64
	VariantsGenerated atomic.Int64
	VariantFailures   atomic.Int64
	SecondaryFailures atomic.Int64
)

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Assets            int64 `json:"assets"`
	Bytes             int64 `json:"bytes"`
	VariantsGenerated int64 `json:"variants_generated"`
	VariantFailures   int64 `json:"variant_failures"`
	SecondaryFailures int64 `json:"secondary_failures"`
}

// AddAsset is called once a new original has been stored.
func AddAsset(size int64) {
	TotalAssetsCount.Add(1)
	TotalAssetsSize.Add(size)
}

// RemoveAsset is called after an asset record is deleted.
func RemoveAsset(size int64) {
	TotalAssetsCount.Add(-1)
	TotalAssetsSize.Add(-size)
}

func VariantGenerated() { VariantsGenerated.Add(1) }

func VariantFailed() { VariantFailures.Add(1) }

func SecondaryFailed() { SecondaryFailures.Add(1) }

// SetInitialStats seeds the asset counters from the database at startup.
func SetInitialStats(count, size int64) {
	TotalAssetsCount.Store(count)
	TotalAssetsSize.Store(size)
}

func Snapshot() Stats {
	return Stats{
		Assets:            TotalAssetsCount.Load(),
		Bytes:             TotalAssetsSize.Load(),
		VariantsGenerated: VariantsGenerated.Load(),
		VariantFailures:   VariantFailures.Load(),
		SecondaryFailures: SecondaryFailures.Load(),
	}
}
