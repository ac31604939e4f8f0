package mock

import "github.com/fwojciec/mtgrules"

var _ mtgrules.AssetExtractor = (*AssetExtractor)(nil)

// AssetExtractor is a mock implementation of mtgrules.AssetExtractor.
type AssetExtractor struct {
	ExtractAssetsFn func(html, pageURL, prefix string) ([]string, error)
}

func (e *AssetExtractor) ExtractAssets(html, pageURL, prefix string) ([]string, error) {
	return e.ExtractAssetsFn(html, pageURL, prefix)
}
