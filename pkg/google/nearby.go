package google

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type nearbyResponse struct {
	statusEnvelope
	Results []struct {
		PlaceID string `xml:"place_id"`
	} `xml:"result"`
	NextPageToken string `xml:"next_page_token"`
}

func (c *httpClient) NearbySearch(ctx context.Context, placeType string, at Coordinates) ([]string, error) {
	params := url.Values{
		"location": {strconv.FormatFloat(at.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(at.Lng, 'f', -1, 64)},
		"radius":   {strconv.FormatFloat(at.Radius, 'f', 0, 64)},
		"type":     {placeType},
	}

	var ids []string
	for page := 1; ; page++ {
		var resp nearbyResponse
		if _, err := c.get(ctx, EndpointNearby, "/place/nearbysearch/xml", params, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			if r.PlaceID != "" {
				ids = append(ids, r.PlaceID)
			}
		}
		if resp.NextPageToken == "" {
			break
		}

		zap.L().Debug("google: next nearby page",
			zap.String("type", placeType),
			zap.Int("page", page+1),
			zap.Int("ids", len(ids)),
		)
		if err := sleep(ctx, c.pageDelay); err != nil {
			return nil, eris.Wrap(err, "google: nearbysearch page delay")
		}
		params.Set("pagetoken", resp.NextPageToken)
	}
	return ids, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
