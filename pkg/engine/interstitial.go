// SPDX-License-Identifier: MIT

package engine

// TrackingSignaling maps a tracking event name (start, firstQuartile,
// midpoint, thirdQuartile, complete) to the beacon URLs to fire for it.
type TrackingSignaling struct {
	Events map[string][]string
}

// Empty reports whether the signaling carries no URLs at all.
func (s *TrackingSignaling) Empty() bool {
	if s == nil {
		return true
	}
	for _, urls := range s.Events {
		if len(urls) > 0 {
			return false
		}
	}
	return true
}

// InterstitialAsset is one playable asset inside an ad break.
type InterstitialAsset struct {
	ID          string
	URI         string
	Duration    float64 // seconds
	StartOffset float64 // position of the asset start on the media timeline
}

// AssetList is the engine-loaded asset list for one interstitial, optionally
// carrying tracking signaling alongside the assets.
type AssetList struct {
	Assets    []InterstitialAsset
	Signaling *TrackingSignaling
}

// InterstitialStartData announces a new ad-break occurrence. Signaling is set
// when the start event itself already carries tracking data.
type InterstitialStartData struct {
	ID           string
	AssetListURL string
	Signaling    *TrackingSignaling
}
